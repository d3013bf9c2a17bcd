package reservation

import "time"

// Interval は半開区間 [Start, End) を表す
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval は区間を作成する
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps は2つの区間が重なるかを返す
// 端点が接するだけの区間（a.End == b.Start）は重ならない
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// IsValid は終了が開始より後かを返す
func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

// Duration は区間の長さを返す
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// WeekOf は t を含む暦週（月曜 00:00 から翌週月曜 00:00）を返す
// 時刻は t のロケーションで解釈する
func WeekOf(t time.Time) Interval {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // 月曜=0
	monday := day.AddDate(0, 0, -offset)
	return Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
}
