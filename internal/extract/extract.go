// Package extract 는 access log 한 줄에서 주소와 요청 메서드를 뽑아낸다.
//
// 주소는 "1~3자리 숫자 네 그룹" 모양이면 모두 받아들인다.
// 999.1.1.1 같은 실제로는 불가능한 값도 주소로 취급하며,
// 유효성 판단은 geo lookup 단계의 몫이다.
package extract

import (
	"regexp"
	"strings"
)

const addrPattern = `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`

var (
	reAddr       = regexp.MustCompile(addrPattern)
	reAddrMethod = regexp.MustCompile(`(` + addrPattern + `) (GET|POST|PUT|DELETE)`)
)

// Addresses 는 라인에 나타난 모든 주소 토큰을 왼쪽부터 순서대로 반환한다.
// 같은 라인의 중복도 그대로 유지한다. (중복 제거는 store 의 역할)
func Addresses(line string) []string {
	if !strings.Contains(line, ".") {
		return nil
	}
	return reAddr.FindAllString(line, -1)
}

// AddressMethod 는 "주소 + 공백 1칸 + 메서드" 가 처음 나타나는 위치를 찾아
// 두 필드로 나눠 반환한다. 없으면 ok=false. (대부분의 라인에서 정상적인 경우)
func AddressMethod(line string) (addr, method string, ok bool) {
	m := reAddrMethod.FindStringSubmatch(line)
	if len(m) < 3 {
		return "", "", false
	}
	return m[1], m[2], true
}

// Facts 는 위 두 추출을 한 번에 수행한다.
func Facts(line string) (addrs []string, addr, method string) {
	addrs = Addresses(line)
	if len(addrs) == 0 {
		// 주소가 없으면 쌍도 있을 수 없다
		return nil, "", ""
	}
	addr, method, _ = AddressMethod(line)
	return addrs, addr, method
}
