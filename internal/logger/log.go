// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"logsift/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 애플리케이션 시작 시 한 번만 호출되는 로거 초기화 함수입니다.
// Config 설정(환경변수)에 따라 '사람용 콘솔 출력' 또는 'JSON 로그'로
// 형태를 바꾸어 설정합니다.
//
// [주요 기능]
//
//  1. 로그 포맷 전환:
//     - LOG_PRETTY=true : 색상 텍스트 (터미널에서 직접 돌릴 때)
//     - LOG_PRETTY=false: JSON (배치 잡 / 수집 시스템 연동)
//
//  2. 공통 필드: 모든 로그에 "service", "instance" 가 붙습니다.
//
//  3. 샘플링: Debug/Info 는 LOG_SAMPLE_N 개 중 1개만 기록.
//     라인 단위 debug 로그(geo 실패 등)가 대량으로 나올 때 사용합니다.
//     Warn/Error 는 항상 100% 기록합니다.
//
// 분석 결과는 stdout 이 아니라 리포트 파일로 나가므로
// 로그는 stderr 로 보냅니다.
func Init(cfg config.Config) {
	Setup(cfg, os.Stderr)
}

// Setup 은 출력 대상을 지정할 수 있는 Init 입니다. (테스트용)
func Setup(cfg config.Config, out io.Writer) {

	// -------------------------------------------------------------------
	// 1) 로그 레벨 결정
	// -------------------------------------------------------------------
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil && l != zerolog.NoLevel {
		level = l
	}

	zerolog.SetGlobalLevel(level)

	// -------------------------------------------------------------------
	// 2) 출력 방식 결정 (사람 vs 기계)
	// -------------------------------------------------------------------
	var w io.Writer

	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	} else {
		w = out
	}

	// -------------------------------------------------------------------
	// 3) 기본 Logger 생성 (공통 태그 부착)
	// -------------------------------------------------------------------
	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	// -------------------------------------------------------------------
	// 4) 샘플링 설정
	// -------------------------------------------------------------------
	logger := base

	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}

	// -------------------------------------------------------------------
	// 5) 전역 Logger 교체
	// -------------------------------------------------------------------
	zlog.Logger = logger

	// 이후 표준 log 패키지 출력도 zerolog 로 연결
	// (config.Load 는 Init 전에 호출되므로 그 fail-fast 메시지는 stderr 로 직접 나간다)
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}
