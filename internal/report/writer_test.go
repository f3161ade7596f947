package report

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"logsift/internal/metrics"
	"logsift/internal/model"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

type fakeViews struct {
	addrs    []string
	profiles []model.GeoProfile
	activity []model.Activity
	threats  []model.ThreatRecord
}

func (f fakeViews) UniqueAddresses() []string          { return f.addrs }
func (f fakeViews) GeoProfileList() []model.GeoProfile { return f.profiles }
func (f fakeViews) ActivityList() []model.Activity     { return f.activity }
func (f fakeViews) ThreatList() []model.ThreatRecord   { return f.threats }
func (f fakeViews) Summary() model.Summary {
	return model.Summary{Lines: 3, UniqueAddresses: len(f.addrs), ThreatLines: len(f.threats)}
}

var sample = fakeViews{
	addrs: []string{"1.1.1.1", "10.0.0.1"},
	profiles: []model.GeoProfile{
		{Address: "1.1.1.1", Hits: 2, CountryCode: "AU", CountryName: "Australia"},
	},
	activity: []model.Activity{
		{Address: "1.1.1.1", Methods: []string{"GET", "POST"}},
	},
	threats: []model.ThreatRecord{
		{Line: 2, Fragments: []string{"'", "%27union"}},
	},
}

func TestFormatters(t *testing.T) {
	if got := FormatUniqueIPs(sample.addrs); got != "1.1.1.1\n10.0.0.1\n" {
		t.Errorf("FormatUniqueIPs = %q", got)
	}
	if got := FormatGeoProfiles(sample.profiles); got != "1.1.1.1\tcountry:AU\thits:2\n" {
		t.Errorf("FormatGeoProfiles = %q", got)
	}
	if got := FormatActivity(sample.activity); got != "1.1.1.1\tmethod:GET,POST\n" {
		t.Errorf("FormatActivity = %q", got)
	}
	if got := FormatUniqueIPs(nil); got != "" {
		t.Errorf("FormatUniqueIPs(nil) = %q", got)
	}
}

func TestWriteAllCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "RESULT")
	m := metrics.New()

	paths, err := NewWriter(dir, m).WriteAll(sample, "access.log", "test")
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	want := []string{UniqueIPFile, UniqueIPCountryFile, IPPerRequestFile, ThreatsFile, SummaryFile}
	if len(paths) != len(want) {
		t.Fatalf("wrote %d files, want %d", len(paths), len(want))
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("file %d = %s, want %s", i, filepath.Base(p), want[i])
		}
	}
	if m.ReportFilesWritten != 5 {
		t.Errorf("ReportFilesWritten = %d, want 5", m.ReportFilesWritten)
	}

	got, err := os.ReadFile(filepath.Join(dir, UniqueIPFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1.1.1.1\n10.0.0.1\n" {
		t.Errorf("unique_ip.txt = %q", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Input   string           `json:"input"`
		Summary model.Summary    `json:"summary"`
		Metrics map[string]int64 `json:"metrics"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("summary.json: %v", err)
	}
	if doc.Input != "access.log" || doc.Summary.Lines != 3 || doc.Metrics["report_files_written"] != 4 {
		t.Errorf("summary = %+v", doc)
	}
}

func TestWriteAllFailsOnBlockedDirectory(t *testing.T) {
	// 디렉토리 자리에 일반 파일이 있으면 생성 실패
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWriter(blocker, nil).WriteAll(sample, "", ""); err == nil {
		t.Error("WriteAll should fail when output path is a file")
	}
}

func TestEncodeThreatsJSONLGZ(t *testing.T) {
	data, err := NewEncoder().EncodeThreatsJSONLGZ(sample.threats)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	defer zr.Close()

	var got []model.ThreatRecord
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var rec model.ThreatRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, rec)
	}
	if !reflect.DeepEqual(got, sample.threats) {
		t.Errorf("decoded = %+v, want %+v", got, sample.threats)
	}
}

func TestEncodeThreatsEmpty(t *testing.T) {
	data, err := NewEncoder().EncodeThreatsJSONLGZ(nil)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("empty report should still be valid gzip: %v", err)
	}
	zr.Close()
}
