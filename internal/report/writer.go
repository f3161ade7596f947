// Package report 는 분석 결과를 파일로 쓰고, 설정된 경우 S3 로 올린다.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"logsift/internal/metrics"
	"logsift/internal/model"

	"github.com/rs/zerolog/log"
)

// 리포트 파일 이름
const (
	UniqueIPFile        = "unique_ip.txt"
	UniqueIPCountryFile = "unique_ip_country.txt"
	IPPerRequestFile    = "ip_per_request.txt"
	ThreatsFile         = "threats.jsonl.gz"
	SummaryFile         = "summary.json"
)

// Views 는 리포트가 필요로 하는 분석 결과 조회 메서드. analyzer.Analyzer 가 만족한다.
type Views interface {
	UniqueAddresses() []string
	GeoProfileList() []model.GeoProfile
	ActivityList() []model.Activity
	ThreatList() []model.ThreatRecord
	Summary() model.Summary
}

// Writer 는 출력 디렉토리 하나에 리포트 파일들을 만든다.
type Writer struct {
	dir     string
	encoder *Encoder
	metrics *metrics.Metrics
}

func NewWriter(dir string, m *metrics.Metrics) *Writer {
	if m == nil {
		m = metrics.New()
	}
	return &Writer{dir: dir, encoder: NewEncoder(), metrics: m}
}

// WriteAll
//
// 출력 디렉토리를 만들고(이미 있으면 그대로) 다섯 개 리포트를 쓴다.
//
//	unique_ip.txt          주소 한 줄에 하나, 처음 본 순서
//	unique_ip_country.txt  <ip>\tcountry:<CC>\thits:<N>
//	ip_per_request.txt     <ip>\tmethod:<M1>,<M2>
//	threats.jsonl.gz       {"line":N,"fragments":[...]} 한 줄에 하나
//	summary.json           개수 요약 + 실행 카운터
//
// 디렉토리 생성이나 쓰기 실패는 복구하지 않고 그대로 반환한다.
// 반환값은 생성된 파일 경로 목록(쓰기 순서).
func (w *Writer) WriteAll(v Views, input, instance string) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", w.dir, err)
	}

	threats, err := w.encoder.EncodeThreatsJSONLGZ(v.ThreatList())
	if err != nil {
		return nil, fmt.Errorf("encode threats: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{UniqueIPFile, []byte(FormatUniqueIPs(v.UniqueAddresses()))},
		{UniqueIPCountryFile, []byte(FormatGeoProfiles(v.GeoProfileList()))},
		{IPPerRequestFile, []byte(FormatActivity(v.ActivityList()))},
		{ThreatsFile, threats},
	}

	var written []string
	for _, f := range files {
		path, err := w.write(f.name, f.data)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	// summary 는 마지막에 — 앞선 파일 카운트까지 반영된다
	summary, err := w.encoder.EncodeSummaryJSON(input, instance, v.Summary(), w.metrics.Snapshot())
	if err != nil {
		return written, fmt.Errorf("encode summary: %w", err)
	}
	path, err := w.write(SummaryFile, summary)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	log.Info().Str("dir", w.dir).Int("files", len(written)).Msg("reports written")
	return written, nil
}

func (w *Writer) write(name string, data []byte) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	atomic.AddInt64(&w.metrics.ReportFilesWritten, 1)
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("report file written")
	return path, nil
}

// FormatUniqueIPs 는 unique_ip.txt 본문.
func FormatUniqueIPs(addrs []string) string {
	var sb strings.Builder
	for _, a := range addrs {
		sb.WriteString(a)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatGeoProfiles 는 unique_ip_country.txt 본문.
func FormatGeoProfiles(profiles []model.GeoProfile) string {
	var sb strings.Builder
	for _, p := range profiles {
		sb.WriteString(p.Address)
		sb.WriteString("\tcountry:")
		sb.WriteString(p.CountryCode)
		sb.WriteString("\thits:")
		sb.WriteString(strconv.Itoa(p.Hits))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatActivity 는 ip_per_request.txt 본문.
func FormatActivity(activity []model.Activity) string {
	var sb strings.Builder
	for _, a := range activity {
		sb.WriteString(a.Address)
		sb.WriteString("\tmethod:")
		sb.WriteString(strings.Join(a.Methods, ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}
