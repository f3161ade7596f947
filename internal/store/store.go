// Package store 는 분석 한 번 동안 쌓이는 모든 집계 상태를 보관한다.
//
//   - 고유 주소 목록 (처음 본 순서)
//   - 주소별 geo 프로파일 (국가 + 등장 횟수)
//   - 주소별 HTTP 메서드 집합
//   - 라인 번호별 위협 fragment
//
// 모든 상태는 단조 증가만 하며, 분석 실행마다 New 로 새로 만든다.
package store

import (
	"sort"
	"sync"
	"sync/atomic"

	"logsift/internal/geo"
	"logsift/internal/metrics"
	"logsift/internal/model"

	"github.com/rs/zerolog/log"
)

type Store struct {
	mu      sync.RWMutex
	metrics *metrics.Metrics

	addresses []string
	seen      map[string]struct{}

	profiles     map[string]*model.GeoProfile
	profileOrder []string

	activity      map[string][]string
	activityOrder []string

	threats map[int][]string
}

// New 는 빈 Store 를 만든다. m 이 nil 이면 카운터를 기록하지 않는다.
func New(m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.New()
	}
	return &Store{
		metrics:  m,
		seen:     make(map[string]struct{}),
		profiles: make(map[string]*model.GeoProfile),
		activity: make(map[string][]string),
		threats:  make(map[int][]string),
	}
}

// RecordSighting
//
// 주소 등장(occurrence)마다 순서대로:
//  1. 처음 보는 주소면 고유 주소 목록에 추가
//  2. lookup 을 한 번 호출 (주소별 캐시 없음 — 등장마다 조회)
//  3. 국가가 나오면 프로파일 생성(Hits=1) 또는 Hits+1
//
// lookup 에러(잘못된 주소 등)는 여기서 삼키고 프로파일만 건드리지 않는다.
// 주소 자체는 고유 목록에 남는다.
func (s *Store) RecordSighting(addrs []string, lookup geo.Lookup) {
	if len(addrs) == 0 {
		return
	}
	if lookup == nil {
		lookup = geo.Nop{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, addr := range addrs {
		atomic.AddInt64(&s.metrics.AddressSightingsTotal, 1)

		if _, ok := s.seen[addr]; !ok {
			s.seen[addr] = struct{}{}
			s.addresses = append(s.addresses, addr)
		}

		atomic.AddInt64(&s.metrics.GeoLookupsTotal, 1)
		country, found, err := lookup.Lookup(addr)
		if err != nil {
			atomic.AddInt64(&s.metrics.GeoErrorsTotal, 1)
			log.Debug().Err(err).Str("ip", addr).Msg("geo lookup failed")
			continue
		}
		if !found {
			atomic.AddInt64(&s.metrics.GeoMissesTotal, 1)
			continue
		}

		if p, ok := s.profiles[addr]; ok {
			p.Hits++
			continue
		}
		s.profiles[addr] = &model.GeoProfile{
			Address:     addr,
			Hits:        1,
			CountryCode: country.Code,
			CountryName: country.Name,
		}
		s.profileOrder = append(s.profileOrder, addr)
	}
}

// RecordActivity 는 주소의 메서드 집합에 method 를 추가한다.
// 이미 있으면 아무 일도 하지 않는다. 빈 값이면 no-op.
func (s *Store) RecordActivity(addr, method string) {
	if addr == "" || method == "" {
		return
	}

	atomic.AddInt64(&s.metrics.ActivityRecordsTotal, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	methods, ok := s.activity[addr]
	if !ok {
		s.activityOrder = append(s.activityOrder, addr)
	}
	for _, m := range methods {
		if m == method {
			return
		}
	}
	s.activity[addr] = append(methods, method)
}

// RecordThreat 는 라인 번호에 fragment 를 이어 붙인다.
// fragments 가 비어 있으면 엔트리를 만들지 않는다.
func (s *Store) RecordThreat(line int, fragments []string) {
	if len(fragments) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threats[line]; !ok {
		atomic.AddInt64(&s.metrics.ThreatLinesTotal, 1)
	}
	atomic.AddInt64(&s.metrics.ThreatFragmentsTotal, int64(len(fragments)))
	s.threats[line] = append(s.threats[line], fragments...)
}

// ------------------------------------------------------------
// 조회 (모두 복사본을 반환 — 호출자가 수정해도 store 에 영향 없음)
// ------------------------------------------------------------

// Addresses 는 처음 본 순서의 고유 주소 목록.
func (s *Store) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.addresses))
	copy(out, s.addresses)
	return out
}

// SortedAddresses 는 고유 주소를 문자열 순으로 정렬해 반환한다.
func (s *Store) SortedAddresses() []string {
	out := s.Addresses()
	sort.Strings(out)
	return out
}

// Profiles 는 주소 → geo 프로파일.
func (s *Store) Profiles() map[string]model.GeoProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.GeoProfile, len(s.profiles))
	for k, p := range s.profiles {
		out[k] = *p
	}
	return out
}

// ProfileList 는 프로파일이 처음 생성된 순서의 목록.
func (s *Store) ProfileList() []model.GeoProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GeoProfile, 0, len(s.profileOrder))
	for _, addr := range s.profileOrder {
		out = append(out, *s.profiles[addr])
	}
	return out
}

// Activity 는 주소 → 메서드 목록.
func (s *Store) Activity() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.activity))
	for k, v := range s.activity {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ActivityList 는 주소가 처음 기록된 순서의 목록.
func (s *Store) ActivityList() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Activity, 0, len(s.activityOrder))
	for _, addr := range s.activityOrder {
		out = append(out, model.Activity{
			Address: addr,
			Methods: append([]string(nil), s.activity[addr]...),
		})
	}
	return out
}

// Threats 는 라인 번호 → fragment 목록.
func (s *Store) Threats() map[int][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int][]string, len(s.threats))
	for k, v := range s.threats {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ThreatList 는 라인 번호 오름차순 목록.
func (s *Store) ThreatList() []model.ThreatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ThreatRecord, 0, len(s.threats))
	for line, frags := range s.threats {
		out = append(out, model.ThreatRecord{
			Line:      line,
			Fragments: append([]string(nil), frags...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// Counts 는 Summary 에 들어갈 개수들을 반환한다. (Lines 는 analyzer 가 채운다)
func (s *Store) Counts() model.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.Summary{
		UniqueAddresses: len(s.addresses),
		GeoProfiles:     len(s.profiles),
		ActiveAddresses: len(s.activity),
		ThreatLines:     len(s.threats),
	}
}
