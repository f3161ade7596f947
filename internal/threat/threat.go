// Package threat 는 라인 단위 SQL injection / XSS 후보 탐지를 담당한다.
//
// 정밀도보다 재현율을 우선하는 휴리스틱이다.
// 평범한 따옴표나 '#' 도 매칭되며, 결과는 사람이 검토할 후보 목록으로 쓰인다.
package threat

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Signature 는 이름이 붙은 컴파일된 패턴 하나.
type Signature struct {
	Name    string
	Pattern *regexp.Regexp
	Raw     string // 원본 패턴 문자열 (로그용)
}

func newSignature(name, raw string) Signature {
	return Signature{Name: name, Pattern: regexp.MustCompile(raw), Raw: raw}
}

// 기본 시그니처. 순서가 곧 우선순위이며 결과 fragment 순서를 결정한다.
// 모두 대소문자 무시, URL 인코딩(%27 등) 변형을 함께 받는다.
var builtin = []Signature{
	newSignature("meta-char", `(?i)%27|'|--|%23|#`),
	newSignature("assign-then-meta", `(?i)(?:%3D|=)[^\n]*(?:%27|'|--|%3B|;)`),
	newSignature("quote-or", `(?i)\w*(?:%27|')(?:%6F|o|%4F)(?:%72|r|%52)`),
	newSignature("quote-union", `(?i)(?:%27|')union`),
	newSignature("tag", `(?i)(?:%3C|<)(?:%2F|/)*[a-z0-9%]+(?:%3E|>)`),
	newSignature("img-tag", `(?i)(?:%3C|<)(?:%69|i|%49)(?:%6D|m|%4D)(?:%67|g|%47)[^\n]+(?:%3E|>)`),
	newSignature("bracketed", `(?i)(?:%3C|<)[^\n]+(?:%3E|>)`),
}

// DefaultSignatures 는 기본 시그니처의 복사본을 반환한다.
func DefaultSignatures() []Signature {
	out := make([]Signature, len(builtin))
	copy(out, builtin)
	return out
}

// Scanner 는 순서가 고정된 시그니처 목록을 라인마다 독립적으로 평가한다.
// 상태가 없으므로 여러 goroutine 에서 동시에 Scan 해도 안전하다.
type Scanner struct {
	signatures []Signature
}

// NewScanner 는 주어진 순서 그대로 시그니처를 사용한다.
// 인자가 없으면 DefaultSignatures 를 사용한다.
func NewScanner(sigs ...Signature) *Scanner {
	if len(sigs) == 0 {
		sigs = DefaultSignatures()
	}
	return &Scanner{signatures: sigs}
}

// Signatures 는 평가 순서대로 시그니처 목록을 반환한다.
func (s *Scanner) Signatures() []Signature {
	out := make([]Signature, len(s.signatures))
	copy(out, s.signatures)
	return out
}

// Scan 은 각 시그니처의 겹치지 않는 모든 매칭을 시그니처 순서대로 이어 붙여 반환한다.
// 아무것도 매칭되지 않으면 nil.
func (s *Scanner) Scan(line string) []string {
	var out []string
	for _, sig := range s.signatures {
		out = append(out, sig.Pattern.FindAllString(line, -1)...)
	}
	return out
}

// LoadRules
//
// 추가 시그니처 파일을 읽는다. 형식:
//
//	# comment
//	<name> <regex>
//
// 잘못된 라인은 경고 로그 후 건너뛴다.
// 파일 자체를 열 수 없으면 에러.
func LoadRules(path string) ([]Signature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer file.Close()

	var sigs []Signature
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			log.Warn().Int("line", lineNum).Str("rule", line).Msg("invalid rule format")
			continue
		}

		name := strings.TrimSpace(parts[0])
		pattern := strings.TrimSpace(parts[1])
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("pattern", pattern).Msg("invalid rule regex")
			continue
		}

		sigs = append(sigs, Signature{Name: name, Pattern: re, Raw: pattern})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	log.Info().Int("count", len(sigs)).Str("path", path).Msg("loaded threat rules")
	return sigs, nil
}
