// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config
//
// 분석 실행에 필요한 모든 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
type Config struct {

	// ---------------------------
	// 입력 / 출력
	// ---------------------------

	InputPath string // 분석할 access log 경로 (.gz 도 허용)
	OutputDir string // 리포트 파일이 생성될 디렉토리 (없으면 생성)

	// ---------------------------
	// 분석 엔진
	// ---------------------------

	GeoDBPath       string // MaxMind mmdb 경로 (비어 있으면 geo 프로파일 없음)
	ThreatRulesPath string // 추가 시그니처 파일 경로 (<name> <regex>)
	Workers         int    // 라인 추출 워커 수 (1 이하 = 순차 처리)
	QueueSize       int    // 워커 job/result 채널 버퍼 크기

	// ---------------------------
	// 로깅 / 식별자
	// ---------------------------

	ServiceName string // 모든 로그에 붙는 service 필드
	InstanceID  string // 실행 식별자 (호스트명 기반, 실패 시 랜덤 hex)
	LogLevel    string // zerolog 레벨 (debug, info, warn ...)
	LogPretty   bool   // true 면 ConsoleWriter
	LogSampleN  uint32 // Debug/Info 샘플링 (N개 중 1개), 0/1 이면 비활성

	// ---------------------------
	// S3 리포트 업로드 (선택)
	// ---------------------------
	// ReportBucket 이 비어 있으면 업로드 단계 자체를 건너뛴다.
	// SDK retry 는 0 으로 고정하고 재시도는 S3AppRetries 로만 제어한다.

	ReportBucket string
	ReportPrefix string
	AWSRegion    string
	S3Timeout    time.Duration // 각 PutObject 시도당 timeout
	S3AppRetries int
}

// UploadEnabled 는 S3 업로드 설정 여부를 반환한다.
func (c Config) UploadEnabled() bool {
	return c.ReportBucket != ""
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 선택 값은 기본값으로 대체하고, 형식이 잘못된 값이나
// 업로드에 필요한 필수 값이 빠진 경우에는 즉시 종료(fail-fast)한다.
func Load() Config {
	cfg := Config{
		InputPath: env("INPUT_PATH", "access.log"),
		OutputDir: env("OUTPUT_DIR", "result"),

		GeoDBPath:       env("GEOIP_DB_PATH", ""),
		ThreatRulesPath: env("THREAT_RULES_PATH", ""),
		Workers:         envInt("WORKERS", 1),
		QueueSize:       envInt("QUEUE_SIZE", 1024),

		ServiceName: env("SERVICE_NAME", "logsift"),
		InstanceID:  env("INSTANCE_ID", fallbackInstanceID()),
		LogLevel:    env("LOG_LEVEL", "info"),
		LogPretty:   envBool("LOG_PRETTY", false),
		LogSampleN:  envUint32("LOG_SAMPLE_N", 0),

		ReportBucket: env("REPORT_BUCKET", ""),
		ReportPrefix: env("REPORT_PREFIX", "logsift"),
		S3Timeout:    envDur("S3_TIMEOUT", 5*time.Second),
		S3AppRetries: envInt("S3_APP_RETRIES", 3),
	}

	// 업로드를 켠 경우에만 리전이 필수
	if cfg.UploadEnabled() {
		cfg.AWSRegion = must("AWS_REGION")
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.S3AppRetries < 1 {
		cfg.S3AppRetries = 1
	}

	return cfg
}

// must
//
// 필수 환경변수가 없으면 즉시 로그 출력 후 종료(fail-fast).
func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env: %s", key)
	}
	return v
}

// env / envInt / envBool / envDur
//
// 선택 환경변수 공통 패턴.
// 값이 없으면 fallback, 값이 있는데 형식이 잘못되었으면 fail-fast.
// .env 파일에서 흔한 양쪽 따옴표는 벗겨낸다.
func env(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	if len(v) >= 2 && ((v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'')) {
		return v[1 : len(v)-1]
	}
	return v
}

func envInt(key string, fallback int) int {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

// envUint32 는 음수나 32비트 범위를 넘는 값을 거부한다.
func envUint32(key string, fallback uint32) uint32 {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	n, err := parseUint32(v)
	if err != nil {
		log.Fatalf("invalid uint32 env %s=%q: %v", key, v, err)
	}
	return n
}

func parseUint32(v string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(env(key, ""))
	switch v {
	case "":
		return fallback
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	log.Fatalf("invalid bool env %s=%q", key, v)
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}

// fallbackInstanceID
//
// 실행 인스턴스를 식별하는 고유 값.
//   - 기본: hostname
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	// 랜덤 6바이트 → 12자리 hex
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
