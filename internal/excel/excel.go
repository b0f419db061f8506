package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jlcarver/courtplan/internal/model"
)

const (
	gridSheet    = "Schedule"
	matchesSheet = "Matches"
	roundsSheet  = "Rounds"

	timeFormat = "2006-01-02 15:04"
)

// Generate creates a workbook with a court-grid overview sheet and flat
// Matches/Rounds sheets that ReadSchedule can load back.
func Generate(tournamentName string, sched *model.GeneratedSchedule, participants []model.Participant) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")
	f.SetDocProps(&excelize.DocProperties{Title: tournamentName, Creator: "courtplan"})

	names := teamNames(sched.Teams, participants)

	if err := writeGridSheet(f, sched, names); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}
	if err := writeMatchesSheet(f, sched, names); err != nil {
		return nil, fmt.Errorf("writing matches sheet: %w", err)
	}
	if err := writeRoundsSheet(f, sched); err != nil {
		return nil, fmt.Errorf("writing rounds sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// teamNames maps team ids to a "Player / Player" display string.
func teamNames(teams []model.Team, participants []model.Participant) map[string]string {
	players := make(map[string]string)
	for _, p := range participants {
		players[p.ID] = p.Name
	}
	name := func(id string) string {
		if n, ok := players[id]; ok {
			return n
		}
		return id
	}

	out := make(map[string]string)
	for _, t := range teams {
		out[t.ID] = fmt.Sprintf("%s / %s", name(t.Player1ID), name(t.Player2ID))
	}
	return out
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func writeGridSheet(f *excelize.File, sched *model.GeneratedSchedule, names map[string]string) error {
	sheet := gridSheet
	f.NewSheet(sheet)

	maxCourt := 0
	for _, m := range sched.Matches {
		if m.CourtNumber > maxCourt {
			maxCourt = m.CourtNumber
		}
	}

	headers := []string{"Date", "Time"}
	for c := 1; c <= maxCourt; c++ {
		headers = append(headers, fmt.Sprintf("Court %d", c))
	}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		for i := range headers {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), style)
		}
	}

	// One row per distinct start instant, one column per court.
	type cellKey struct {
		start time.Time
		court int
	}
	cells := make(map[cellKey]string)
	seen := make(map[time.Time]bool)
	var waves []time.Time
	for _, m := range sched.Matches {
		if !seen[m.ScheduledTime] {
			seen[m.ScheduledTime] = true
			waves = append(waves, m.ScheduledTime)
		}
		cells[cellKey{m.ScheduledTime, m.CourtNumber}] = fmt.Sprintf("%s vs %s",
			names[m.Team1ID], names[m.Team2ID])
	}
	sort.Slice(waves, func(i, j int) bool { return waves[i].Before(waves[j]) })

	for i, w := range waves {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), w.Format("01/02/2006"))
		f.SetCellValue(sheet, cellRef(2, row), w.Format("15:04"))
		for c := 1; c <= maxCourt; c++ {
			if text, ok := cells[cellKey{w, c}]; ok {
				f.SetCellValue(sheet, cellRef(c+2, row), text)
			}
		}
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 10)
	for c := 1; c <= maxCourt; c++ {
		col := colLetter(c + 2)
		f.SetColWidth(sheet, col, col, 34)
	}

	return nil
}

func writeMatchesSheet(f *excelize.File, sched *model.GeneratedSchedule, names map[string]string) error {
	sheet := matchesSheet
	f.NewSheet(sheet)

	headers := []string{"Match ID", "Round", "Match", "Court", "Scheduled", "Team 1", "Team 2", "Team 1 ID", "Team 2 ID", "Status"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		for i := range headers {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), style)
		}
	}

	matches := make([]model.Match, len(sched.Matches))
	copy(matches, sched.Matches)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundNumber != matches[j].RoundNumber {
			return matches[i].RoundNumber < matches[j].RoundNumber
		}
		return matches[i].MatchNumber < matches[j].MatchNumber
	})

	for i, m := range matches {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), m.ID)
		f.SetCellValue(sheet, cellRef(2, row), m.RoundNumber)
		f.SetCellValue(sheet, cellRef(3, row), m.MatchNumber)
		f.SetCellValue(sheet, cellRef(4, row), m.CourtNumber)
		f.SetCellValue(sheet, cellRef(5, row), m.ScheduledTime.Format(timeFormat))
		f.SetCellValue(sheet, cellRef(6, row), names[m.Team1ID])
		f.SetCellValue(sheet, cellRef(7, row), names[m.Team2ID])
		f.SetCellValue(sheet, cellRef(8, row), m.Team1ID)
		f.SetCellValue(sheet, cellRef(9, row), m.Team2ID)
		f.SetCellValue(sheet, cellRef(10, row), string(m.Status))
	}

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "E", "E", 18)
	f.SetColWidth(sheet, "F", "G", 30)
	f.SetColWidth(sheet, "H", "I", 38)

	return nil
}

func writeRoundsSheet(f *excelize.File, sched *model.GeneratedSchedule) error {
	sheet := roundsSheet
	f.NewSheet(sheet)

	headers := []string{"Round ID", "Round", "Status", "Bye Participant", "Bye Team"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		for i := range headers {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), style)
		}
	}

	rounds := make([]model.Round, len(sched.Rounds))
	copy(rounds, sched.Rounds)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })

	for i, r := range rounds {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), r.ID)
		f.SetCellValue(sheet, cellRef(2, row), r.RoundNumber)
		f.SetCellValue(sheet, cellRef(3, row), string(r.Status))
		if r.ByeParticipantID != nil {
			f.SetCellValue(sheet, cellRef(4, row), *r.ByeParticipantID)
		}
		if r.ByeTeamID != nil {
			f.SetCellValue(sheet, cellRef(5, row), *r.ByeTeamID)
		}
	}

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "D", "E", 38)

	return nil
}

// ReadSchedule loads the Matches and Rounds sheets back from a
// workbook, e.g. for conflict validation of a hand-edited schedule.
func ReadSchedule(path string) ([]model.Match, []model.Round, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	matches, err := readMatches(f)
	if err != nil {
		return nil, nil, err
	}
	rounds, err := readRounds(f)
	if err != nil {
		return nil, nil, err
	}
	if len(rounds) == 0 {
		rounds = roundsFromMatches(matches)
	}
	return matches, rounds, nil
}

func readMatches(f *excelize.File) ([]model.Match, error) {
	rows, err := f.GetRows(matchesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s sheet: %w", matchesSheet, err)
	}

	var matches []model.Match
	for i, row := range rows {
		if i == 0 || len(row) < 10 || row[0] == "" {
			continue
		}
		scheduled, err := time.ParseInLocation(timeFormat, row[4], time.Local)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid scheduled time %q: %w", i+1, row[4], err)
		}
		var round, num, court int
		if _, err := fmt.Sscanf(row[1], "%d", &round); err != nil {
			return nil, fmt.Errorf("row %d: invalid round %q", i+1, row[1])
		}
		fmt.Sscanf(row[2], "%d", &num)
		fmt.Sscanf(row[3], "%d", &court)

		matches = append(matches, model.Match{
			ID:            row[0],
			RoundNumber:   round,
			MatchNumber:   num,
			CourtNumber:   court,
			ScheduledTime: scheduled,
			Team1ID:       row[7],
			Team2ID:       row[8],
			Status:        model.MatchStatus(row[9]),
		})
	}
	return matches, nil
}

func readRounds(f *excelize.File) ([]model.Round, error) {
	rows, err := f.GetRows(roundsSheet)
	if err != nil {
		return nil, nil // sheet is optional in hand-built files
	}

	var rounds []model.Round
	for i, row := range rows {
		if i == 0 || len(row) < 3 || row[0] == "" {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(row[1], "%d", &num); err != nil {
			return nil, fmt.Errorf("row %d: invalid round number %q", i+1, row[1])
		}
		r := model.Round{
			ID:          row[0],
			RoundNumber: num,
			Status:      model.RoundStatus(row[2]),
		}
		if len(row) > 3 && row[3] != "" {
			bye := row[3]
			r.ByeParticipantID = &bye
		}
		if len(row) > 4 && row[4] != "" {
			bye := row[4]
			r.ByeTeamID = &bye
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

// roundsFromMatches synthesizes pending round entities when a workbook
// carries no Rounds sheet.
func roundsFromMatches(matches []model.Match) []model.Round {
	seen := make(map[int]bool)
	var rounds []model.Round
	for _, m := range matches {
		if seen[m.RoundNumber] {
			continue
		}
		seen[m.RoundNumber] = true
		rounds = append(rounds, model.Round{
			RoundNumber: m.RoundNumber,
			Status:      model.RoundPending,
		})
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return rounds
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
