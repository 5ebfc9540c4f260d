package calendar

import "github.com/Chiquitos-JP/trading-dashboard/date"

// NYSETableVersion identifies the embedded table revision. Bump it whenever
// the holiday list below changes so downstream artifacts can be traced back
// to the table that produced them.
const NYSETableVersion = "2026a"

// NYSE returns the embedded NYSE holiday calendar covering 2021 through 2026.
// Observed dates are used where a holiday falls on a weekend. The table lists
// scheduled holidays only; ad-hoc closures go in an external table file.
func NYSE() *Calendar {
	h := map[string]string{
		"2021-01-01": "New Year's Day",
		"2021-01-18": "Martin Luther King, Jr. Day",
		"2021-02-15": "Washington's Birthday",
		"2021-04-02": "Good Friday",
		"2021-05-31": "Memorial Day",
		"2021-07-05": "Independence Day (observed)",
		"2021-09-06": "Labor Day",
		"2021-11-25": "Thanksgiving Day",
		"2021-12-24": "Christmas Day (observed)",

		"2022-01-17": "Martin Luther King, Jr. Day",
		"2022-02-21": "Washington's Birthday",
		"2022-04-15": "Good Friday",
		"2022-05-30": "Memorial Day",
		"2022-06-20": "Juneteenth (observed)",
		"2022-07-04": "Independence Day",
		"2022-09-05": "Labor Day",
		"2022-11-24": "Thanksgiving Day",
		"2022-12-26": "Christmas Day (observed)",

		"2023-01-02": "New Year's Day (observed)",
		"2023-01-16": "Martin Luther King, Jr. Day",
		"2023-02-20": "Washington's Birthday",
		"2023-04-07": "Good Friday",
		"2023-05-29": "Memorial Day",
		"2023-06-19": "Juneteenth",
		"2023-07-04": "Independence Day",
		"2023-09-04": "Labor Day",
		"2023-11-23": "Thanksgiving Day",
		"2023-12-25": "Christmas Day",

		"2024-01-01": "New Year's Day",
		"2024-01-15": "Martin Luther King, Jr. Day",
		"2024-02-19": "Washington's Birthday",
		"2024-03-29": "Good Friday",
		"2024-05-27": "Memorial Day",
		"2024-06-19": "Juneteenth",
		"2024-07-04": "Independence Day",
		"2024-09-02": "Labor Day",
		"2024-11-28": "Thanksgiving Day",
		"2024-12-25": "Christmas Day",

		"2025-01-01": "New Year's Day",
		"2025-01-20": "Martin Luther King, Jr. Day",
		"2025-02-17": "Washington's Birthday",
		"2025-04-18": "Good Friday",
		"2025-05-26": "Memorial Day",
		"2025-06-19": "Juneteenth",
		"2025-07-04": "Independence Day",
		"2025-09-01": "Labor Day",
		"2025-11-27": "Thanksgiving Day",
		"2025-12-25": "Christmas Day",

		"2026-01-01": "New Year's Day",
		"2026-01-19": "Martin Luther King, Jr. Day",
		"2026-02-16": "Washington's Birthday",
		"2026-04-03": "Good Friday",
		"2026-05-25": "Memorial Day",
		"2026-06-19": "Juneteenth",
		"2026-07-03": "Independence Day (observed)",
		"2026-09-07": "Labor Day",
		"2026-11-26": "Thanksgiving Day",
		"2026-12-25": "Christmas Day",
	}
	holidays := make(map[date.Date]string, len(h))
	for day, name := range h {
		holidays[date.MustParse(day)] = name
	}
	return New("NYSE", NYSETableVersion, holidays)
}
