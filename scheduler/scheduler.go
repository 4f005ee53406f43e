// Package scheduler is a toy process scheduler the shell drives purely
// for show: it never touches the filesystem engine. It is a Go port of
// original_source's Scheduler/Process pair (FCFS/RR/SJF over a ready
// queue, burst-time estimation, tick-based simulation), kept as a
// decorative collaborator the way the assignment it was pulled from
// used it to visualize scheduling behavior next to shell commands.
package scheduler

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

type State int

const (
	Ready State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type Algorithm int

const (
	FCFS Algorithm = iota
	RR
	SJF
)

func (a Algorithm) String() string {
	switch a {
	case FCFS:
		return "fcfs"
	case RR:
		return "rr"
	case SJF:
		return "sjf"
	default:
		return "unknown"
	}
}

// Process is the toy scheduler's PCB: a command string, a simulated
// burst time, and the state and time counters the simulation keeps.
type Process struct {
	PID            int
	Command        string
	State          State
	BurstTime      int
	RemainingTime  int
	WaitingTime    int
	TurnaroundTime int
}

// Scheduler holds a ready queue plus whichever process is currently
// "running" in the simulation. It is not safe for concurrent use
// without external locking; the shell drives it from its single REPL
// loop, outside the filesystem engine's lock.
type Scheduler struct {
	algorithm    Algorithm
	nextPID      int
	timeSlice    int
	currentSlice int
	ready        []*Process
	all          []*Process
	running      *Process
}

func New() *Scheduler {
	return &Scheduler{nextPID: 1, timeSlice: 4}
}

// AddProcess enqueues command with a synthetic burst time: a random
// baseline nudged up for commands the original assignment treated as
// slower (cat, echo).
func (s *Scheduler) AddProcess(command string) *Process {
	burst := 5 + rand.Intn(10)
	if strings.Contains(command, "cat") {
		burst += 5
	}
	if strings.Contains(command, "echo") {
		burst += 3
	}
	p := &Process{PID: s.nextPID, Command: command, State: Ready, BurstTime: burst, RemainingTime: burst}
	s.nextPID++
	s.ready = append(s.ready, p)
	s.all = append(s.all, p)
	return p
}

func (s *Scheduler) SetAlgorithm(a Algorithm) { s.algorithm = a }
func (s *Scheduler) GetAlgorithm() Algorithm  { return s.algorithm }

// Tick advances the simulation by one unit of time, returning the log
// lines a caller may want to print -- the same messages the original
// wrote straight to stdout from inside tick()/schedule().
func (s *Scheduler) Tick() []string {
	var logs []string
	for _, p := range s.ready {
		p.WaitingTime++
	}

	if s.running == nil || s.running.State == Terminated {
		logs = append(logs, s.schedule()...)
	}

	if s.running == nil {
		return logs
	}

	s.running.RemainingTime--
	s.currentSlice++

	switch {
	case s.running.RemainingTime <= 0:
		logs = append(logs, fmt.Sprintf("process %d (%q) finished", s.running.PID, s.running.Command))
		s.running.State = Terminated
		s.running = nil
		logs = append(logs, s.schedule()...)
	case s.algorithm == RR && s.currentSlice >= s.timeSlice:
		logs = append(logs, fmt.Sprintf("time slice end for pid %d, back to ready queue", s.running.PID))
		s.running.State = Ready
		s.ready = append(s.ready, s.running)
		s.running = nil
		logs = append(logs, s.schedule()...)
	}
	return logs
}

func (s *Scheduler) schedule() []string {
	if len(s.ready) == 0 {
		s.running = nil
		return nil
	}

	switch s.algorithm {
	case SJF:
		sort.SliceStable(s.ready, func(i, j int) bool { return s.ready[i].BurstTime < s.ready[j].BurstTime })
		fallthrough
	case FCFS, RR:
		s.running = s.ready[0]
		s.ready = s.ready[1:]
	}

	if s.running == nil {
		return nil
	}
	s.running.State = Running
	s.currentSlice = 0
	return []string{fmt.Sprintf("running pid %d (%q)", s.running.PID, s.running.Command)}
}

// ProcessList returns every process the scheduler has ever seen, in the
// order it was added.
func (s *Scheduler) ProcessList() []*Process {
	out := make([]*Process, len(s.all))
	copy(out, s.all)
	return out
}

func (s *Scheduler) RunningProcess() *Process { return s.running }
