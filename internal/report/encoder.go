package report

import (
	"bytes"

	"logsift/internal/model"
	"logsift/internal/pool"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// Encoder 는 위협 탐지 결과를 JSONL → gzip 형태로 직렬화하는 컴포넌트.
//
// 특징:
//   - goccy/go-json 기반 JSON 인코딩
//   - gzip.Writer + bytes.Buffer 재사용(pool 기반)
//   - 결과는 새로운 []byte 로 복사해 호출자에게 소유권을 넘김
//     (pool 버퍼를 그대로 반환하면 데이터 corruption 위험)
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeThreatsJSONLGZ 는 위협 라인 목록을 한 줄에 하나씩 JSON 으로 인코딩한 뒤
// gzip 압축해 반환한다. 목록이 비어 있어도 유효한 (빈) gzip 스트림을 만든다.
func (e *Encoder) EncodeThreatsJSONLGZ(records []model.ThreatRecord) ([]byte, error) {

	// ------------------------------------------------------------
	// 1) 결과 버퍼 / gzip writer 를 pool 에서 가져온다
	// ------------------------------------------------------------
	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	gz := pool.GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)

	// ------------------------------------------------------------
	// 2) JSONL 인코딩 (gzip writer 에 직결)
	// ------------------------------------------------------------
	enc := json.NewEncoder(gz)

	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = gz.Close()
			pool.GzipPool.Put(gz)
			pool.PutBuffer(buf)
			return nil, err
		}
	}

	// ------------------------------------------------------------
	// 3) gzip footer flush & close
	// ------------------------------------------------------------
	if err := gz.Close(); err != nil {
		pool.GzipPool.Put(gz)
		pool.PutBuffer(buf)
		return nil, err
	}
	pool.GzipPool.Put(gz)

	// ------------------------------------------------------------
	// 4) 호출자 소유의 slice 로 복사 후 버퍼 반환
	// ------------------------------------------------------------
	raw := buf.Bytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	pool.PutBuffer(buf)

	return data, nil
}

// summaryDoc 은 summary.json 의 구조.
type summaryDoc struct {
	Input    string           `json:"input"`
	Instance string           `json:"instance"`
	Summary  model.Summary    `json:"summary"`
	Metrics  map[string]int64 `json:"metrics"`
}

// EncodeSummaryJSON 은 실행 요약을 들여쓰기 된 JSON 으로 만든다.
func (e *Encoder) EncodeSummaryJSON(input, instance string, s model.Summary, counters map[string]int64) ([]byte, error) {
	return json.MarshalIndent(summaryDoc{
		Input:    input,
		Instance: instance,
		Summary:  s,
		Metrics:  counters,
	}, "", "  ")
}
