package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	text := `UNIVERSITY OF TECHNOLOGY
Institution Name: University of Technology
Student Name: Jane Doe
Roll No: 2021-001
CGPA: 8.7
Certificate Number: CERT2021001
Name: Someone Else
Remarks without colon`

	f := ParseFields(text)
	assert.Equal(t, Fields{
		StudentName: "Jane Doe",
		RollNumber:  "2021-001",
		Marks:       "8.7",
		CertNumber:  "CERT2021001",
	}, f)
}

func TestParseFields_ValueWithColon(t *testing.T) {
	f := ParseFields("serial no: A:17\nreg no:   \nregistration no: R-9")
	assert.Equal(t, "A:17", f.CertNumber)
	assert.Equal(t, "R-9", f.RollNumber)
}

func TestParseFields_ListMarkers(t *testing.T) {
	text := "1. Name: Jane Doe\n  - Roll No: 42\n(3) Certificate No: CERT-7\n* Marks: 91%"

	assert.Equal(t, Fields{
		StudentName: "Jane Doe",
		RollNumber:  "42",
		Marks:       "91%",
		CertNumber:  "CERT-7",
	}, ParseFields(text))
}

func TestParseFields_Empty(t *testing.T) {
	assert.Equal(t, Fields{}, ParseFields(""))
}

func TestMeanConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tJane\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tDoe\n"

	assert.InDelta(t, 0.8, MeanConfidence(tsv), 1e-9)
	assert.Zero(t, MeanConfidence(""))
}

func TestPreprocess(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Preprocess(buf.Bytes())
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, minOCRWidth, decoded.Bounds().Dx())
}

func TestPreprocess_NotAnImage(t *testing.T) {
	_, err := Preprocess([]byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
