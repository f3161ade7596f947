package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 한 번의 분석 실행 상태를 나타내는 카운터 모음이다.
// 병렬 모드에서는 워커 goroutine 들이 동시에 증가시키므로 모두 atomic 으로만 접근한다.
type Metrics struct {
	// ======================
	// 입력 지표
	// ======================

	// LinesTotal
	// - 읽어 들인 전체 라인 수 (빈 라인 포함).
	LinesTotal int64

	// LinesInvalidUTF8Total
	// - 잘못된 바이트 시퀀스를 포함해 best-effort 디코딩된 라인 수.
	// - 0 이 아니면 로그 파일 인코딩이 UTF-8 이 아니거나 바이너리 probe 가 섞여 있다는 뜻.
	LinesInvalidUTF8Total int64

	// ======================
	// 집계 지표
	// ======================

	// AddressSightingsTotal
	// - 라인에서 추출된 주소 토큰 수 (같은 라인 중복 포함).
	AddressSightingsTotal int64

	// GeoLookupsTotal / GeoMissesTotal / GeoErrorsTotal
	// - lookup 호출 수, 국가 정보 없음, 잘못된 주소 등으로 실패한 수.
	// - 주소 캐시가 없으므로 GeoLookupsTotal == AddressSightingsTotal 이어야 한다.
	GeoLookupsTotal int64
	GeoMissesTotal  int64
	GeoErrorsTotal  int64

	// ActivityRecordsTotal
	// - 주소+메서드 쌍이 발견된 라인 수.
	ActivityRecordsTotal int64

	// ======================
	// 위협 탐지 지표
	// ======================

	ThreatLinesTotal     int64 // 시그니처가 하나라도 매칭된 라인 수
	ThreatFragmentsTotal int64 // 매칭된 fragment 총 개수

	// ======================
	// 리포트 / 업로드 지표
	// ======================

	ReportFilesWritten int64
	S3FilesUploaded    int64
	S3PutErrorsTotal   int64 // PutObject 실패 "시도" 횟수
}

func New() *Metrics {
	return &Metrics{}
}

// Snapshot 은 현재 카운터 값을 이름 → 값 맵으로 복사한다. (summary.json 용)
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"lines_total":              atomic.LoadInt64(&m.LinesTotal),
		"lines_invalid_utf8_total": atomic.LoadInt64(&m.LinesInvalidUTF8Total),
		"address_sightings_total":  atomic.LoadInt64(&m.AddressSightingsTotal),
		"geo_lookups_total":        atomic.LoadInt64(&m.GeoLookupsTotal),
		"geo_misses_total":         atomic.LoadInt64(&m.GeoMissesTotal),
		"geo_errors_total":         atomic.LoadInt64(&m.GeoErrorsTotal),
		"activity_records_total":   atomic.LoadInt64(&m.ActivityRecordsTotal),
		"threat_lines_total":       atomic.LoadInt64(&m.ThreatLinesTotal),
		"threat_fragments_total":   atomic.LoadInt64(&m.ThreatFragmentsTotal),
		"report_files_written":     atomic.LoadInt64(&m.ReportFilesWritten),
		"s3_files_uploaded":        atomic.LoadInt64(&m.S3FilesUploaded),
		"s3_put_errors_total":      atomic.LoadInt64(&m.S3PutErrorsTotal),
	}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "lines_total=%d\n", atomic.LoadInt64(&m.LinesTotal))
	fmt.Fprintf(&sb, "lines_invalid_utf8_total=%d\n", atomic.LoadInt64(&m.LinesInvalidUTF8Total))

	fmt.Fprintf(&sb, "address_sightings_total=%d\n", atomic.LoadInt64(&m.AddressSightingsTotal))
	fmt.Fprintf(&sb, "geo_lookups_total=%d\n", atomic.LoadInt64(&m.GeoLookupsTotal))
	fmt.Fprintf(&sb, "geo_misses_total=%d\n", atomic.LoadInt64(&m.GeoMissesTotal))
	fmt.Fprintf(&sb, "geo_errors_total=%d\n", atomic.LoadInt64(&m.GeoErrorsTotal))
	fmt.Fprintf(&sb, "activity_records_total=%d\n", atomic.LoadInt64(&m.ActivityRecordsTotal))

	fmt.Fprintf(&sb, "threat_lines_total=%d\n", atomic.LoadInt64(&m.ThreatLinesTotal))
	fmt.Fprintf(&sb, "threat_fragments_total=%d\n", atomic.LoadInt64(&m.ThreatFragmentsTotal))

	fmt.Fprintf(&sb, "report_files_written=%d\n", atomic.LoadInt64(&m.ReportFilesWritten))
	fmt.Fprintf(&sb, "s3_files_uploaded=%d\n", atomic.LoadInt64(&m.S3FilesUploaded))
	fmt.Fprintf(&sb, "s3_put_errors_total=%d\n", atomic.LoadInt64(&m.S3PutErrorsTotal))

	return sb.String()
}
