// Package geo 는 주소 → 국가 조회를 담당한다.
//
// 분석 엔진은 Lookup 인터페이스만 알고 있으며
// 실제 DB 포맷(MaxMind mmdb 등)에는 의존하지 않는다.
package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// ErrInvalidAddress 는 IP 로 해석할 수 없는 토큰(예: 999.1.1.1)에 대해 반환된다.
var ErrInvalidAddress = errors.New("geo: invalid address")

// Country 는 lookup 결과.
type Country struct {
	Code string // ISO 3166-1 alpha-2
	Name string // 영문 국가명
}

// Lookup
//
// 계약:
//   - 주소를 DB 에서 찾지 못하면 (Country{}, false, nil)
//   - 주소 형식이 잘못되었으면 ErrInvalidAddress 를 감싼 에러
//   - 호출자는 에러를 "geo 정보 없음"으로 취급하고 계속 진행한다
type Lookup interface {
	Lookup(addr string) (Country, bool, error)
}

// Nop 은 geo DB 가 설정되지 않았을 때 쓰는 Lookup. 항상 "없음".
type Nop struct{}

func (Nop) Lookup(string) (Country, bool, error) { return Country{}, false, nil }

// MMDB 는 MaxMind GeoLite2/GeoIP2 Country(또는 City) DB 기반 Lookup.
// geoip2.Reader 는 동시 사용에 안전하므로 병렬 워커에서 그대로 공유한다.
type MMDB struct {
	reader *geoip2.Reader
}

// OpenMMDB 는 mmdb 파일을 연다. 호출자는 Close 해야 한다.
func OpenMMDB(path string) (*MMDB, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &MMDB{reader: r}, nil
}

func (m *MMDB) Lookup(addr string) (Country, bool, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return Country{}, false, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	rec, err := m.reader.Country(ip)
	if err != nil {
		return Country{}, false, fmt.Errorf("geoip lookup %s: %w", addr, err)
	}
	if rec == nil || rec.Country.IsoCode == "" {
		return Country{}, false, nil
	}

	return Country{
		Code: rec.Country.IsoCode,
		Name: rec.Country.Names["en"],
	}, true, nil
}

func (m *MMDB) Close() error {
	return m.reader.Close()
}
