package pool

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// 리포트 인코딩(gzip+JSONL)과 압축된 입력 로그 디코딩에서
// 버퍼와 gzip writer/reader 를 재사용한다.
// 같은 프로세스에서 분석을 여러 번 돌려도(테스트, 여러 파일) GC 부담이 늘지 않게 한다.
// ---------------------------------------------------------------

var (
	// BufferPool:
	//   - gzip 인코딩 결과를 담는 임시 버퍼
	//   - 초기 용량 256KB
	//   - 1MB 초과 버퍼는 풀에 넣지 않음
	BufferPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 256*1024))
		},
	}

	// GzipPool:
	//   - gzip.Writer 재사용
	//   - 리포트는 한 번 쓰고 끝이므로 BestSpeed
	GzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}

	// gzipReaderPool:
	//   - gzip.Reader 는 zero value 로 만들고 Reset 으로 초기화한다
	gzipReaderPool = sync.Pool{
		New: func() any { return new(gzip.Reader) },
	}
)

// Pool에 되돌려줄 최대 버퍼 용량
const MaxBufferCap = 1 * 1024 * 1024 // 1MB

// PutBuffer:
//   - 1MB 이하이면 풀에 재사용
//   - 초대형 결과 버퍼는 GC 에 위임
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BufferPool.Put(buf)
	}
}

// GetGzipReader:
//   - r 로 Reset 된 gzip.Reader 를 반환
//   - 헤더가 잘못되었으면 reader 를 풀에 돌려놓고 에러
func GetGzipReader(r io.Reader) (*gzip.Reader, error) {
	zr := gzipReaderPool.Get().(*gzip.Reader)
	if err := zr.Reset(r); err != nil {
		gzipReaderPool.Put(zr)
		return nil, err
	}
	return zr, nil
}

// PutGzipReader:
//   - Close 후 풀에 반환
func PutGzipReader(zr *gzip.Reader) {
	_ = zr.Close()
	gzipReaderPool.Put(zr)
}
