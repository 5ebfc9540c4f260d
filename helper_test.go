package dashboard

import "github.com/Chiquitos-JP/trading-dashboard/calendar"

func testCalendar() *calendar.Calendar { return calendar.NYSE() }
