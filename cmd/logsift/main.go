package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logsift/internal/analyzer"
	"logsift/internal/config"
	"logsift/internal/geo"
	"logsift/internal/logger"
	"logsift/internal/metrics"
	"logsift/internal/report"
	"logsift/internal/threat"

	"github.com/rs/zerolog/log"
)

// usage: logsift [input-path] [output-dir]
func main() {

	// ====================================================================
	// Config & Logger 초기화
	// ====================================================================
	//
	// - Config: 환경변수 기반 (INPUT_PATH, OUTPUT_DIR, GEOIP_DB_PATH ...)
	// - 위치 인자가 있으면 입력 경로 / 출력 디렉토리를 덮어쓴다
	// ====================================================================
	cfg := config.Load()
	if len(os.Args) > 1 && os.Args[1] != "" {
		cfg.InputPath = os.Args[1]
	}
	if len(os.Args) > 2 && os.Args[2] != "" {
		cfg.OutputDir = os.Args[2]
	}

	logger.Init(cfg)
	m := metrics.New()

	// ====================================================================
	// SIGINT / SIGTERM → context 취소
	// ====================================================================
	//
	// 큰 로그 파일을 읽는 도중 중단하면 analyzer 는 라인 사이에서 멈추고,
	// 리포트는 쓰지 않는다. (부분 결과를 완성본처럼 남기지 않음)
	// ====================================================================
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, m); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("analysis interrupted")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("logsift failed")
	}
}

func run(ctx context.Context, cfg config.Config, m *metrics.Metrics) error {
	startedAt := time.Now()

	log.Info().
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputDir).
		Int("workers", cfg.Workers).
		Msg("starting analysis")

	// ====================================================================
	// Geo lookup
	// ====================================================================
	//
	// mmdb 가 없으면 geo.Nop → 국가 프로파일은 비어 있지만
	// 고유 주소 / 메서드 / 위협 결과는 그대로 나온다.
	// ====================================================================
	var lookup geo.Lookup = geo.Nop{}
	if cfg.GeoDBPath != "" {
		db, err := geo.OpenMMDB(cfg.GeoDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		lookup = db
	} else {
		log.Warn().Msg("GEOIP_DB_PATH not set, country profiles will be empty")
	}

	// ====================================================================
	// 위협 시그니처: 기본 7개 + (선택) 규칙 파일
	// ====================================================================
	sigs := threat.DefaultSignatures()
	if cfg.ThreatRulesPath != "" {
		extra, err := threat.LoadRules(cfg.ThreatRulesPath)
		if err != nil {
			return err
		}
		sigs = append(sigs, extra...)
	}

	// ====================================================================
	// 분석 (단일 패스)
	// ====================================================================
	a := analyzer.New(lookup, threat.NewScanner(sigs...), m, analyzer.Options{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	})
	if err := a.AnalyzeFile(ctx, cfg.InputPath); err != nil {
		return err
	}

	// ====================================================================
	// 리포트 쓰기 — 디렉토리 생성/쓰기 실패는 치명적
	// ====================================================================
	paths, err := report.NewWriter(cfg.OutputDir, m).WriteAll(a, cfg.InputPath, cfg.InstanceID)
	if err != nil {
		return err
	}

	// ====================================================================
	// (선택) S3 업로드
	// ====================================================================
	//
	// 로컬 리포트는 이미 완성된 상태이므로 업로드 실패는
	// 에러로 반환만 하고 파일은 남겨 둔다.
	// ====================================================================
	if cfg.UploadEnabled() {
		u, err := report.NewS3Uploader(ctx, cfg, m)
		if err != nil {
			return err
		}
		if err := u.UploadAll(ctx, startedAt, paths); err != nil {
			return err
		}
	}

	sum := a.Summary()
	log.Info().
		Int("lines", sum.Lines).
		Int("unique_addresses", sum.UniqueAddresses).
		Int("geo_profiles", sum.GeoProfiles).
		Int("threat_lines", sum.ThreatLines).
		Dur("elapsed", time.Since(startedAt)).
		Msg("analysis finished")
	log.Debug().Msg("metrics\n" + m.String())

	return nil
}
