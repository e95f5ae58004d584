package main

import (
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/internal"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderRooms(w io.Writer, page domain.RoomsPage) {
	table := newTable(w, "ID", "Name", "Event", "Format", "State", "Users", "Host", "Created")
	for _, room := range page.Rooms {
		table.Append([]string{
			room.ID,
			room.Settings.RoomName,
			string(room.Settings.RoomEvent),
			string(room.Settings.RoomFormat),
			string(room.State),
			strconv.Itoa(room.ActiveUserCount()),
			room.Host,
			room.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	table.Render()
	_, _ = fmt.Fprintf(w, "page %d, %d of %d rooms\n", page.Page, len(page.Rooms), page.Total)
}

// renderStandings lists participants by set wins then points.
func renderStandings(w io.Writer, room *domain.Room) {
	_, _ = fmt.Fprintf(w, "%s (%s) set %d solve %d, %s\n",
		room.Settings.RoomName, room.ID, room.CurrentSet, room.CurrentSolve, room.State)
	participants := lo.Values(room.Participants())
	slices.SortFunc(participants, func(a, b domain.Participant) int {
		if a.SetWins() != b.SetWins() {
			return b.SetWins() - a.SetWins()
		}
		if a.Points() != b.Points() {
			if a.Points() > b.Points() {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ParticipantID(), b.ParticipantID())
	})
	table := newTable(w, "ID", "Name", "Sets", "Points", "Status", "Competing", "Active")
	for _, p := range participants {
		table.Append([]string{
			p.ParticipantID(),
			nameOf(room, p),
			strconv.Itoa(p.SetWins()),
			formatScore(p.Points()),
			string(p.SolveStatus()),
			strconv.FormatBool(p.IsCompeting()),
			strconv.FormatBool(p.IsActive()),
		})
	}
	table.Render()
}

func nameOf(room *domain.Room, p domain.Participant) string {
	if u, ok := room.Users[p.ParticipantID()]; ok {
		return u.Name
	}
	if t, ok := room.Teams[p.ParticipantID()]; ok {
		return t.Name
	}
	return "-"
}

func formatScore(s domain.Score) string {
	switch {
	case s.IsDNF():
		return "DNF"
	case s.IsUnavailable():
		return "-"
	default:
		return strconv.FormatFloat(float64(s), 'f', -1, 64)
	}
}

func renderKeys(w io.Writer, rows []internal.InspectRow) {
	table := newTable(w, "Key", "Kind", "Room", "Detail", "Expires")
	for _, row := range rows {
		table.Append([]string{row.Key, row.Kind, row.RoomID, row.Detail, row.ExpiresAt})
	}
	table.Render()
}

var (
	finishStyle = color.New(color.FgGreen, color.OpBold)
	solveStyle  = color.New(color.FgCyan)
	userStyle   = color.New(color.FgYellow)
	alertStyle  = color.New(color.FgRed, color.OpBold)
	plainStyle  = color.New(color.FgWhite)
)

func styleOf(name event.Name) color.Style {
	switch name {
	case event.SolveFinished, event.SetFinished, event.MatchFinished:
		return finishStyle
	case event.NewSolve, event.NewSet, event.SolveStatusUpdate:
		return solveStyle
	case event.UserJoined, event.UserLeft, event.UserUpdate, event.TeamsUpdate:
		return userStyle
	case event.UserKicked, event.UserBanned, event.RoomDeleted:
		return alertStyle
	default:
		return plainStyle
	}
}

// formatEvent is one line per event, the payload cut to keep it readable.
func formatEvent(e event.RoomEvent, maxPayload int) string {
	payload := string(e.Payload)
	if maxPayload > 0 && len(payload) > maxPayload {
		payload = payload[:maxPayload] + "..."
	}
	target := ""
	if e.Target != "" {
		target = " -> " + e.Target
	}
	return fmt.Sprintf("%s %s%s %s", e.At.Format("15:04:05.000"), styleOf(e.Name).Render(string(e.Name)), target, payload)
}
