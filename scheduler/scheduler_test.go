package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddProcessAssignsIncreasingPIDs(t *testing.T) {
	s := New()
	p1 := s.AddProcess("ls")
	p2 := s.AddProcess("cat foo")
	require.Equal(t, 1, p1.PID)
	require.Equal(t, 2, p2.PID)
	require.Equal(t, Ready, p1.State)
}

func TestAddProcessBoostsBurstForCatAndEcho(t *testing.T) {
	s := New()
	cat := s.AddProcess("cat foo")
	echo := s.AddProcess(`echo "hi" > foo`)
	require.GreaterOrEqual(t, cat.BurstTime, 10)
	require.GreaterOrEqual(t, echo.BurstTime, 8)
}

func TestFCFSRunsInArrivalOrder(t *testing.T) {
	s := New()
	s.SetAlgorithm(FCFS)
	first := s.AddProcess("a")
	first.BurstTime, first.RemainingTime = 2, 2
	second := s.AddProcess("b")
	second.BurstTime, second.RemainingTime = 1, 1

	s.Tick()
	require.NotNil(t, s.RunningProcess())
	require.Equal(t, first.PID, s.RunningProcess().PID)

	s.Tick()
	require.Equal(t, Terminated, first.State)
	require.NotNil(t, s.RunningProcess())
	require.Equal(t, second.PID, s.RunningProcess().PID)
}

func TestSJFPicksShortestJobFirst(t *testing.T) {
	s := New()
	s.SetAlgorithm(SJF)
	long := s.AddProcess("long")
	long.BurstTime, long.RemainingTime = 10, 10
	short := s.AddProcess("short")
	short.BurstTime, short.RemainingTime = 2, 2

	s.Tick()
	require.Equal(t, short.PID, s.RunningProcess().PID)
}

func TestRoundRobinPreemptsAfterTimeSlice(t *testing.T) {
	s := New()
	s.SetAlgorithm(RR)
	p1 := s.AddProcess("a")
	p1.BurstTime, p1.RemainingTime = 10, 10
	p2 := s.AddProcess("b")
	p2.BurstTime, p2.RemainingTime = 10, 10

	for i := 0; i < 4; i++ {
		s.Tick()
	}
	require.Equal(t, p2.PID, s.RunningProcess().PID)
	require.Equal(t, Ready, p1.State)
}

func TestWaitingTimeAccruesForReadyProcesses(t *testing.T) {
	s := New()
	s.SetAlgorithm(FCFS)
	p1 := s.AddProcess("a")
	p1.BurstTime, p1.RemainingTime = 5, 5
	p2 := s.AddProcess("b")
	p2.BurstTime, p2.RemainingTime = 5, 5

	s.Tick()
	s.Tick()
	require.Equal(t, 2, p2.WaitingTime)
}

func TestProcessListPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.AddProcess("a")
	s.AddProcess("b")
	s.AddProcess("c")
	list := s.ProcessList()
	require.Len(t, list, 3)
	require.Equal(t, "a", list[0].Command)
	require.Equal(t, "c", list[2].Command)
}

func TestScheduleWithEmptyReadyQueueLeavesNothingRunning(t *testing.T) {
	s := New()
	s.Tick()
	require.Nil(t, s.RunningProcess())
}
