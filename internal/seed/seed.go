package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
	"github.com/firehall-dev/duty-roster/backend/internal/utils"
)

var teamNames = []string{"Alpha", "Bravo", "Charlie", "Delta"}

// shiftPattern lays a four-team rotation over a 28-day cycle: each
// team runs a 24h tour every fourth day plus a day/night pair midway
// through its rest block.
type shiftSpec struct {
	Type      domain.ShiftType
	StartTime string
	EndTime   string
	DayOffset int32
}

var shiftPattern = []shiftSpec{
	{Type: domain.ShiftTypeFull24h, StartTime: "07:00:00", EndTime: "07:00:00", DayOffset: 0},
	{Type: domain.ShiftTypeDay, StartTime: "07:00:00", EndTime: "19:00:00", DayOffset: 2},
	{Type: domain.ShiftTypeNight, StartTime: "19:00:00", EndTime: "07:00:00", DayOffset: 2},
}

func SeedTeams(repo *repository.Repository) ([]*domain.Team, error) {
	teams := make([]*domain.Team, 0, len(teamNames))
	for _, name := range teamNames {
		team := &domain.Team{Name: name}
		if err := repo.CreateTeam(team); err != nil {
			return nil, fmt.Errorf("seed team %s: %w", name, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func SeedUsers(repo *repository.Repository, teams []*domain.Team, perTeam int, password, emailDomain string) error {
	for _, team := range teams {
		for i := 0; i < perTeam; i++ {
			user, err := utils.GenerateRandomUser(password, emailDomain)
			if err != nil {
				return err
			}
			user.TeamID = &team.ID
			if i == 0 {
				user.Role = domain.RoleCommander
			}

			if err := repo.CreateUser(user); err != nil {
				// Random usernames can collide, skip and carry on.
				slog.Warn("could not seed user", "username", user.Username, "error", err)
				continue
			}
		}
	}
	return nil
}

func SeedCycleConfig(repo *repository.Repository) (*domain.CycleConfig, error) {
	cfg := &domain.CycleConfig{
		StartDate:       roster.TruncateToDate(time.Now().AddDate(0, -1, 0)),
		CycleLengthDays: 28,
	}
	if err := repo.CreateCycleConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SeedShifts gives each team one pattern repetition per week of the
// cycle, staggered so some team is always on duty.
func SeedShifts(repo *repository.Repository, teams []*domain.Team, cfg *domain.CycleConfig) error {
	weeks := cfg.CycleLengthDays / 7

	for teamIdx, team := range teams {
		for week := int32(0); week < weeks; week++ {
			base := week*7 + int32(teamIdx)%7
			for _, spec := range shiftPattern {
				cycleDay := (base+spec.DayOffset)%cfg.CycleLengthDays + 1
				shift := &domain.Shift{
					TeamID:    team.ID,
					CycleDay:  cycleDay,
					Type:      spec.Type,
					StartTime: spec.StartTime,
					EndTime:   spec.EndTime,
				}
				if err := repo.CreateShift(shift); err != nil {
					if errors.Is(err, roster.ErrConflict) {
						continue
					}
					return fmt.Errorf("seed shift for team %s day %d: %w", team.Name, cycleDay, err)
				}
			}
		}
	}
	return nil
}

// SeedReplacements opens a few sample cover requests on upcoming 24h
// tours so the application workflow has data to show.
func SeedReplacements(repo *repository.Repository, teams []*domain.Team, cfg *domain.CycleConfig, n int) error {
	created := 0
	for _, team := range teams {
		if created >= n {
			break
		}

		members, err := repo.GetTeamMembers(team.ID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}

		shifts, err := repo.GetShiftsByTeam(team.ID)
		if err != nil {
			return err
		}

		for _, shift := range shifts {
			if shift.Type != domain.ShiftTypeFull24h || created >= n {
				continue
			}

			from := roster.TruncateToDate(time.Now())
			dates, err := roster.DatesForCycleDay(shift.CycleDay, cfg.StartDate, cfg.CycleLengthDays, from, from.AddDate(0, 1, 0))
			if err != nil {
				return err
			}
			if len(dates) == 0 {
				continue
			}

			rep := &domain.Replacement{
				ShiftDate:           dates[0],
				ShiftType:           shift.Type,
				TeamID:              team.ID,
				OriginalUserID:      &members[created%len(members)].ID,
				ApplicationDeadline: dates[0].Add(-24 * time.Hour),
			}
			if err := repo.CreateReplacement(rep); err != nil {
				return err
			}
			created++
		}
	}
	return nil
}
