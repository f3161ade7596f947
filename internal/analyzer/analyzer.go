// Package analyzer 는 access log 한 파일을 처음부터 끝까지 한 번 읽으며
// 라인별 추출 → 집계, 위협 스캔 → 기록을 수행하는 오케스트레이터이다.
package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"logsift/internal/extract"
	"logsift/internal/geo"
	"logsift/internal/metrics"
	"logsift/internal/model"
	"logsift/internal/pool"
	"logsift/internal/store"
	"logsift/internal/threat"
	"logsift/internal/worker"

	"github.com/rs/zerolog/log"
)

// gzip magic bytes
var gzipMagic = []byte{0x1f, 0x8b}

// ErrAlreadyAnalyzed 는 같은 Analyzer 로 두 번째 Analyze 를 호출했을 때 반환된다.
// 라인 번호가 0 부터 다시 시작해 위협 기록이 섞이므로 실행마다 New 로 새로 만든다.
var ErrAlreadyAnalyzed = errors.New("analyzer: already analyzed")

// Options 는 Analyzer 동작 옵션.
type Options struct {
	Workers   int // 1 이하면 순차 처리
	QueueSize int // 병렬 모드 채널 버퍼 크기
}

// Analyzer
//
// 분석 실행 하나에 대응한다. Store 를 내부에 새로 만들기 때문에
// 같은 프로세스에서 여러 Analyzer 를 동시에 돌려도 서로 섞이지 않는다.
type Analyzer struct {
	geo     geo.Lookup
	scanner *threat.Scanner
	metrics *metrics.Metrics
	opts    Options

	store    *store.Store
	lines    int
	analyzed bool
}

// New 는 Analyzer 를 만든다.
// lookup 이 nil 이면 geo.Nop, scanner 가 nil 이면 기본 시그니처, m 이 nil 이면 내부 카운터를 사용한다.
func New(lookup geo.Lookup, scanner *threat.Scanner, m *metrics.Metrics, opts Options) *Analyzer {
	if lookup == nil {
		lookup = geo.Nop{}
	}
	if scanner == nil {
		scanner = threat.NewScanner()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1024
	}
	return &Analyzer{
		geo:     lookup,
		scanner: scanner,
		metrics: m,
		opts:    opts,
		store:   store.New(m),
	}
}

// AnalyzeFile 은 path 를 열어 Analyze 한다.
// gzip 으로 압축된 로그(logrotate 의 access.log.2.gz 등)는 자동으로 풀어서 읽는다.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	head, _ := br.Peek(len(gzipMagic))

	if bytes.Equal(head, gzipMagic) {
		zr, err := pool.GetGzipReader(br)
		if err != nil {
			return fmt.Errorf("open gzip log %s: %w", path, err)
		}
		defer pool.PutGzipReader(zr)

		log.Info().Str("path", path).Msg("reading gzip compressed log")
		return a.Analyze(ctx, zr)
	}

	return a.Analyze(ctx, br)
}

// Analyze
//
// r 을 처음부터 끝까지 정확히 한 번, 파일 순서대로 읽는다.
// 라인 번호는 0 부터 시작한다. 라인마다:
//
//	(a) 주소 추출 → RecordSighting
//	(b) 주소+메서드 추출 → RecordActivity
//	(c) 위협 스캔 → RecordThreat
//
// 잘못된 UTF-8 바이트는 버리고 나머지로 계속 처리한다.
// ctx 는 라인 사이마다 확인한다.
func (a *Analyzer) Analyze(ctx context.Context, r io.Reader) error {
	if a.analyzed {
		return ErrAlreadyAnalyzed
	}
	a.analyzed = true

	if a.opts.Workers > 1 {
		return a.analyzeParallel(ctx, r)
	}

	br := bufio.NewReaderSize(r, 64*1024)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", idx, err)
		}

		a.apply(a.extract(worker.Line{Index: idx, Text: line}))
	}

	log.Info().Int("lines", a.lines).Msg("analysis complete")
	return nil
}

// analyzeParallel 은 worker.Manager 로 추출/스캔을 병렬화한다.
// 결과 반영은 Manager 가 라인 순서대로 직렬화하므로 순차 모드와 결과가 같다.
func (a *Analyzer) analyzeParallel(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan worker.Line, a.opts.QueueSize)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		br := bufio.NewReaderSize(r, 64*1024)
		for idx := 0; ; idx++ {
			line, err := readLine(br)
			if errors.Is(err, io.EOF) {
				readErr <- nil
				return
			}
			if err != nil {
				readErr <- fmt.Errorf("read line %d: %w", idx, err)
				cancel()
				return
			}

			select {
			case lines <- worker.Line{Index: idx, Text: line}:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
	}()

	mgr := worker.NewManager(a.opts.Workers, a.opts.QueueSize, a.extract, a.apply)
	runErr := mgr.Run(ctx, lines)

	if err := <-readErr; err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	log.Info().Int("lines", a.lines).Int("workers", a.opts.Workers).Msg("analysis complete")
	return nil
}

// extract 는 라인 하나의 순수 함수 부분. 병렬 모드에서는 여러 워커가 동시에 호출한다.
func (a *Analyzer) extract(ln worker.Line) model.LineFacts {
	text := ln.Text
	atomic.AddInt64(&a.metrics.LinesTotal, 1)

	if !utf8.ValidString(text) {
		atomic.AddInt64(&a.metrics.LinesInvalidUTF8Total, 1)
		log.Debug().Int("line", ln.Index).Msg("invalid utf-8 sequence dropped")
		text = strings.ToValidUTF8(text, "")
	}

	addrs, addr, method := extract.Facts(text)
	return model.LineFacts{
		Index:     ln.Index,
		Addresses: addrs,
		Address:   addr,
		Method:    method,
		Fragments: a.scanner.Scan(text),
	}
}

// apply 는 항상 한 goroutine 에서 라인 순서대로 호출된다.
func (a *Analyzer) apply(f model.LineFacts) {
	a.store.RecordSighting(f.Addresses, a.geo)
	a.store.RecordActivity(f.Address, f.Method)
	a.store.RecordThreat(f.Index, f.Fragments)
	a.lines++
}

// readLine 은 개행 문자를 제외한 한 줄을 반환한다.
// 마지막 줄에 개행이 없어도 내용이 있으면 반환하고, 그 다음 호출에서 io.EOF.
// bufio.Scanner 와 달리 라인 길이 제한이 없다. (바이너리 probe 라인 대비)
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// ------------------------------------------------------------
// 조회 — 분석 전에는 빈 값, 분석 후에는 몇 번이든 같은 결과
// ------------------------------------------------------------

// UniqueAddresses 는 처음 본 순서의 고유 주소 목록.
func (a *Analyzer) UniqueAddresses() []string { return a.store.Addresses() }

// SortedAddresses 는 정렬된 고유 주소 목록.
func (a *Analyzer) SortedAddresses() []string { return a.store.SortedAddresses() }

// GeoProfiles 는 주소 → geo 프로파일.
func (a *Analyzer) GeoProfiles() map[string]model.GeoProfile { return a.store.Profiles() }

// GeoProfileList 는 프로파일 생성 순서의 목록.
func (a *Analyzer) GeoProfileList() []model.GeoProfile { return a.store.ProfileList() }

// Activity 는 주소 → 메서드 목록.
func (a *Analyzer) Activity() map[string][]string { return a.store.Activity() }

// ActivityList 는 주소 기록 순서의 목록.
func (a *Analyzer) ActivityList() []model.Activity { return a.store.ActivityList() }

// Threats 는 라인 번호 → fragment 목록.
func (a *Analyzer) Threats() map[int][]string { return a.store.Threats() }

// ThreatList 는 라인 번호 오름차순 목록.
func (a *Analyzer) ThreatList() []model.ThreatRecord { return a.store.ThreatList() }

// Summary 는 결과 개수 요약.
func (a *Analyzer) Summary() model.Summary {
	s := a.store.Counts()
	s.Lines = a.lines
	return s
}
