package service

import "time"

// PayrollWindow 结算周期：周日 00:00 至周五 23:59:59.999，周六 09:00 发放
type PayrollWindow struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PayoutDate time.Time `json:"payout_date"`
}

// PayrollWindowFor 计算参考时间所在的结算周期，loc 为空时使用参考时间自身时区
func PayrollWindowFor(reference time.Time, loc *time.Location) PayrollWindow {
	if loc != nil {
		reference = reference.In(loc)
	}
	zone := reference.Location()
	year, month, day := reference.Date()
	sunday := day - int(reference.Weekday())

	return PayrollWindow{
		Start:      time.Date(year, month, sunday, 0, 0, 0, 0, zone),
		End:        time.Date(year, month, sunday+5, 23, 59, 59, int(999*time.Millisecond), zone),
		PayoutDate: time.Date(year, month, sunday+6, 9, 0, 0, 0, zone),
	}
}

// Contains 判断时间是否落在周期内（含两端）
func (w PayrollWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// resolvePeriod 补全查询区间：都未指定时取当前周期，只指定一端时取该端所在周期的另一端
func resolvePeriod(start, end *time.Time, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var from, to time.Time
	switch {
	case start == nil && end == nil:
		window := PayrollWindowFor(now, loc)
		from, to = window.Start, window.End
	case end == nil:
		from, to = *start, PayrollWindowFor(*start, loc).End
		// 周六不在任何周期内，顺延到下一周期结束
		if to.Before(from) {
			to = PayrollWindowFor(start.AddDate(0, 0, 1), loc).End
		}
	case start == nil:
		from, to = PayrollWindowFor(*end, loc).Start, *end
	default:
		from, to = *start, *end
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrPeriodInvalid
	}
	return from, to, nil
}
