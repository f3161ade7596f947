// internal/worker/manager.go
package worker

import (
	"context"
	"sync"

	"logsift/internal/model"
)

// Line 은 reader 가 워커에 넘기는 작업 단위.
type Line struct {
	Index int
	Text  string
}

// ExtractFunc 는 라인 하나를 LineFacts 로 바꾸는 순수 함수.
// 여러 워커에서 동시에 호출된다.
type ExtractFunc func(Line) model.LineFacts

// ApplyFunc 는 LineFacts 를 집계 상태에 반영한다.
// 항상 단일 goroutine 에서 Index 오름차순으로 호출된다.
type ApplyFunc func(model.LineFacts)

// Manager는 라인 분석의 병렬 map / 순차 reduce 파이프라인이다.
//
// 주요 구성:
//   - lines: reader → workers (Index 가 붙은 원본 라인)
//   - extractLoop: N개 워커가 ExtractFunc 실행 (추출 + 위협 스캔)
//   - resultCh: workers → reducer
//   - reduceLoop: 완료 순서와 상관없이 Index 순서로 재정렬 후 ApplyFunc 호출
//   - slots: 재정렬 윈도우. dispatch 가 Index 순서로 슬롯을 잡고 apply 후 반납한다.
//     한 라인이 오래 걸려도 그 뒤로 처리 중이거나 pending 에 쌓이는 라인은
//     window 개를 넘지 않는다.
//
// 재정렬이 보장되므로 고유 주소의 등장 순서, 위협 라인 번호가
// 순차 처리와 완전히 같다.
type Manager struct {
	workers   int
	queueSize int
	extract   ExtractFunc
	apply     ApplyFunc

	window   int
	slots    chan struct{}
	resultCh chan model.LineFacts

	wg sync.WaitGroup
}

// NewManager는 워커 수와 채널 버퍼 크기를 받아 파이프라인을 구성한다.
func NewManager(workers, queueSize int, extract ExtractFunc, apply ApplyFunc) *Manager {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Manager{
		workers:   workers,
		queueSize: queueSize,
		window:    workers + queueSize,
		extract:   extract,
		apply:     apply,
	}
}

// Run은 lines 채널이 닫힐 때까지 처리하고,
// 모든 결과가 apply 된 뒤에 반환한다.
//
// ctx 가 취소되면 워커는 남은 라인을 버리고 종료하며 ctx.Err() 를 반환한다.
// 이 경우 이미 apply 된 라인은 연속된 앞부분(0..k)뿐이다.
// 호출자(reader)는 ctx.Done() 을 보고 lines 를 닫아야 한다.
func (m *Manager) Run(ctx context.Context, lines <-chan Line) error {
	m.slots = make(chan struct{}, m.window)
	m.resultCh = make(chan model.LineFacts, m.queueSize)

	work := make(chan Line)
	go m.dispatchLoop(ctx, lines, work)

	m.wg.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.extractLoop(ctx, work)
	}

	// 워커가 모두 끝나면 resultCh 를 닫아 reducer 를 종료시킨다
	go func() {
		m.wg.Wait()
		close(m.resultCh)
	}()

	m.reduceLoop()

	return ctx.Err()
}

// dispatchLoop는 재정렬 윈도우 슬롯을 잡은 라인만 워커에게 넘긴다.
// 슬롯을 Index 순서로 잡으므로 가장 앞선 미반영 라인은 항상 슬롯을 가지고 있다.
func (m *Manager) dispatchLoop(ctx context.Context, lines <-chan Line, work chan<- Line) {
	defer close(work)

	for {
		select {
		case <-ctx.Done():
			return

		case ln, ok := <-lines:
			if !ok {
				return
			}

			select {
			case m.slots <- struct{}{}:
			case <-ctx.Done():
				return
			}

			select {
			case work <- ln:
			case <-ctx.Done():
				return
			}
		}
	}
}

// extractLoop는 lines 에서 라인을 받아 ExtractFunc 결과를 resultCh 로 보낸다.
func (m *Manager) extractLoop(ctx context.Context, lines <-chan Line) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ln, ok := <-lines:
			if !ok {
				return
			}
			facts := m.extract(ln)
			facts.Index = ln.Index

			select {
			case m.resultCh <- facts:
			case <-ctx.Done():
				return
			}
		}
	}
}

// reduceLoop는 resultCh 결과를 Index 순서로 apply 한다.
//
// 앞선 Index 가 아직 도착하지 않았으면 pending 에 보관했다가
// 빈 자리가 채워지는 즉시 연속 구간을 한 번에 흘려보낸다.
// 취소로 중간 Index 가 영영 오지 않으면 그 뒤 결과는 버린다.
func (m *Manager) reduceLoop() {
	next := 0
	pending := make(map[int]model.LineFacts)

	for facts := range m.resultCh {
		if facts.Index != next {
			pending[facts.Index] = facts
			continue
		}

		m.applyOne(facts)
		next++

		for {
			f, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			m.applyOne(f)
			next++
		}
	}
}

func (m *Manager) applyOne(f model.LineFacts) {
	m.apply(f)
	<-m.slots
}
