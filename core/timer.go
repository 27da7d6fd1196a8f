// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// NewStageTimer creates a timer that reports frame stage durations to log.
func NewStageTimer(log logrus.FieldLogger) *StageTimer {
	return &StageTimer{
		log: log,
		now: time.Now,
	}
}

type stage struct {
	name     string
	duration time.Duration
}

// StageTimer measures named stages of a frame. Stages measured between two
// Reset calls are reported together as one debug entry.
type StageTimer struct {
	log logrus.FieldLogger
	now func() time.Time

	title  string
	stages []stage
}

// Reset reports the stages collected so far and starts a new record.
func (s *StageTimer) Reset(title string) {
	s.Flush()
	s.title = title
}

// Measure starts timing a stage, the returned func stops it.
//
//	defer timer.Measure("Fence waiting")()
func (s *StageTimer) Measure(name string) func() {
	start := s.now()
	return func() {
		s.stages = append(s.stages, stage{
			name:     name,
			duration: s.now().Sub(start),
		})
	}
}

// Flush reports the collected stages, if any.
func (s *StageTimer) Flush() {
	if len(s.stages) == 0 {
		return
	}
	fields := make(logrus.Fields, len(s.stages))
	for _, st := range s.stages {
		fields[st.name] = st.duration
	}
	s.log.WithFields(fields).Debug(s.title)
	s.stages = s.stages[:0]
}
