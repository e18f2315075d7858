package stints

import "time"

// Segment is one lineup of one team and every interval it played.
type Segment struct {
	ID        int        `json:"id"`
	Team      int        `json:"tno"`
	Lineup    Lineup     `json:"lineup"`
	Intervals []Interval `json:"intervals"`
}

// Minutes sums the interval durations, each truncated to whole seconds.
func (s *Segment) Minutes() float64 {
	minutes := 0.0
	for _, iv := range s.Intervals {
		minutes += float64(int64(iv.Duration()/time.Second)) / 60
	}
	return minutes
}

// Set holds a team's segments in first-seen order. Ids are 1-based positions.
type Set struct {
	Team     int
	Segments []*Segment

	byKey map[string]*Segment
}

func newSet(team int) *Set {
	return &Set{
		Team:  team,
		byKey: make(map[string]*Segment),
	}
}

// Len returns the number of distinct lineups.
func (s *Set) Len() int {
	return len(s.Segments)
}

// Get returns the segment with the given id, or nil.
func (s *Set) Get(id int) *Segment {
	if id < 1 || id > len(s.Segments) {
		return nil
	}
	return s.Segments[id-1]
}

// Lookup returns the segment of a lineup, or nil.
func (s *Set) Lookup(l Lineup) *Segment {
	return s.byKey[l.Key()]
}

func (s *Set) add(l Lineup, iv Interval) *Segment {
	key := l.Key()
	if seg, ok := s.byKey[key]; ok {
		seg.Intervals = append(seg.Intervals, iv)
		return seg
	}

	seg := &Segment{
		ID:        len(s.Segments) + 1,
		Team:      s.Team,
		Lineup:    l,
		Intervals: []Interval{iv},
	}
	s.Segments = append(s.Segments, seg)
	s.byKey[key] = seg
	return seg
}
