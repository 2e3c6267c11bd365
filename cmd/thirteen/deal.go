package main

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"thirteen/internal/domain"
)

var errPlayerCount = fmt.Errorf("need exactly %d player names", domain.MaxPlayers)

func dealCmd() *cobra.Command {
	var (
		seed    int64
		players []string
	)

	cmd := &cobra.Command{
		Use:   "deal",
		Short: "Deal a table locally and print the hands",
		Long: `Shuffle a deck, deal thirteen cards to four players and print each
sorted hand together with the player holding the 3♠.

A fixed --seed always produces the same deal.

Examples:
  thirteen deal
  thirteen deal --seed=42 --players=Ann,Bo,Cy,Di`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			lobby, err := dealTable(seed, players)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("Seed %d", seed)
			fmt.Println(renderDeal(lobby))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Shuffle seed (default: time based)")
	cmd.Flags().StringSliceVarP(&players, "players", "p", []string{"North", "East", "South", "West"}, "Comma separated player names")

	return cmd
}

// dealTable seats players in order and deals them a deck shuffled from seed.
func dealTable(seed int64, players []string) (*domain.Lobby, error) {
	if len(players) != domain.MaxPlayers {
		return nil, errPlayerCount
	}
	lobby := domain.NewLobby("DEAL", "Local deal")
	for i, name := range players {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("player names must not be empty")
		}
		if _, err := lobby.AddPlayer(fmt.Sprintf("seat-%d", i+1), name); err != nil {
			return nil, fmt.Errorf("seat %q: %w", name, err)
		}
	}
	if err := lobby.StartShuffled(rand.New(rand.NewSource(seed))); err != nil {
		return nil, err
	}
	return lobby, nil
}

func renderDeal(lobby *domain.Lobby) string {
	var panels []pterm.Panel
	for i, p := range lobby.Players {
		cards := make([]string, len(p.Hand))
		for j, c := range p.Hand {
			cards[j] = c.String()
		}
		title := p.Name
		if i == lobby.TurnIndex {
			title += " (leads)"
		}
		box := pterm.DefaultBox.WithHorizontalPadding(2).WithTitle(title).WithTitleTopCenter()
		panels = append(panels, pterm.Panel{Data: box.Sprint(strings.Join(cards, " "))})
	}

	var rows [][]pterm.Panel
	for i := 0; i < len(panels); i += 2 {
		end := i + 2
		if end > len(panels) {
			end = len(panels)
		}
		rows = append(rows, panels[i:end])
	}
	out, err := pterm.DefaultPanel.WithPanels(rows).Srender()
	if err != nil {
		return err.Error()
	}
	return out
}
