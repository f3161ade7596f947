package pool

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestGzipRoundTripThroughPools(t *testing.T) {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer PutBuffer(buf)

	gz := GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)
	if _, err := gz.Write([]byte("1.1.1.1 GET /\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	GzipPool.Put(gz)

	zr, err := GetGzipReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("GetGzipReader: %v", err)
	}
	defer PutGzipReader(zr)

	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1.1.1.1 GET /\n" {
		t.Errorf("round trip = %q", got)
	}
}

func TestGetGzipReaderRejectsPlainText(t *testing.T) {
	if _, err := GetGzipReader(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Error("plain text should not pass as gzip")
	}
}

func TestPutBufferDropsHugeBuffers(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, 2*MaxBufferCap))
	PutBuffer(big) // panic 없이 그냥 버려져야 한다
}
