// internal/model/analysis.go
package model

// GeoProfile
// ------------------------------------------------------------
// 주소별 국가 정보와 등장 횟수.
// geo lookup 이 국가를 돌려준 첫 등장에서 Hits=1 로 생성되고,
// 이후 lookup 이 국가를 돌려줄 때마다 Hits 가 1씩 증가한다.
// lookup 실패/국가 없음이면 프로파일 자체가 만들어지지 않는다.
type GeoProfile struct {
	Address     string `json:"ip"`
	Hits        int    `json:"hits"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
}

// Activity
// ------------------------------------------------------------
// 주소 하나에서 관찰된 HTTP 메서드 집합 (처음 본 순서 유지, 중복 없음).
type Activity struct {
	Address string   `json:"ip"`
	Methods []string `json:"methods"`
}

// ThreatRecord
// ------------------------------------------------------------
// 시그니처가 하나 이상 매칭된 라인 하나.
// Line 은 0-based 라인 번호, Fragments 는 시그니처 우선순위 → 매칭 순서.
// threats.jsonl.gz 의 한 줄이 된다.
type ThreatRecord struct {
	Line      int      `json:"line"`
	Fragments []string `json:"fragments"`
}

// LineFacts
// ------------------------------------------------------------
// 라인 하나에서 뽑아낸 사실(fact) 묶음.
// 라인 내용만의 순수 함수 결과이므로 워커에서 병렬로 계산한 뒤
// Index 순서대로 store 에 반영한다.
type LineFacts struct {
	Index     int
	Addresses []string
	Address   string // 주소+메서드 쌍이 없으면 빈 값
	Method    string
	Fragments []string
}

// Summary
// ------------------------------------------------------------
// 분석 결과 개수 요약. summary.json 에 metrics 와 함께 기록된다.
type Summary struct {
	Lines           int `json:"lines"`
	UniqueAddresses int `json:"unique_addresses"`
	GeoProfiles     int `json:"geo_profiles"`
	ActiveAddresses int `json:"active_addresses"`
	ThreatLines     int `json:"threat_lines"`
}
