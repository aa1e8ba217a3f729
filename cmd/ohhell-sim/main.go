// Command ohhell-sim plays a full seeded match in the terminal. By default every seat
// places its first legal bid and every turn runs out on the timer, so the engine's
// auto-play decides each card. With -bot every seat is played by a bot of that level.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"ohhell/internal/app"
	"ohhell/internal/bot"
	"ohhell/internal/config"
	"ohhell/internal/domain"
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func main() {
	_ = godotenv.Load()

	seed := flag.String("seed", envOr("OHHELL_SEED", "ohhell"), "shuffle seed")
	players := flag.Int("players", envInt("OHHELL_PLAYERS", 4), "number of seats")
	cfgPath := flag.String("config", os.Getenv("OHHELL_CONFIG"), "game config JSON file")
	botLevel := flag.String("bot", os.Getenv("OHHELL_BOT"), "bot level for every seat (basic, smart); empty lets the timer play")
	verbose := flag.Bool("v", false, "log engine diagnostics")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			pterm.Error.Printfln("logger: %v", err)
			os.Exit(1)
		}
		logger = dev
	}
	defer func() { _ = logger.Sync() }()

	var agents []*bot.Agent
	if *botLevel != "" {
		level, err := bot.ParseLevel(*botLevel)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		for i := range *players {
			agent, err := bot.NewAgent(seatID(i), level)
			if err != nil {
				pterm.Error.Println(err)
				os.Exit(1)
			}
			agents = append(agents, agent)
		}
	}

	if err := run(logger, *seed, *players, *cfgPath, agents); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func seatID(i int) string {
	return fmt.Sprintf("P%d", i+1)
}

// nextCommand returns the first command any agent wants to send.
func nextCommand(agents []*bot.Agent, s domain.GameState) (domain.Command, bool) {
	for _, a := range agents {
		if cmd, ok := a.Act(s); ok {
			return cmd, true
		}
	}
	return nil, false
}

func run(logger *zap.Logger, seed string, players int, cfgPath string, agents []*bot.Agent) error {
	if players < app.MinPlayersToStartGame || players > app.MaxPlayers {
		return fmt.Errorf("players must be between %d and %d", app.MinPlayersToStartGame, app.MaxPlayers)
	}

	var cfg *config.GameConfig
	if cfgPath != "" {
		if err := config.LoadGameConfig(cfgPath); err != nil {
			return err
		}
		cfg = config.GetGameConfig()
	}

	sess, err := app.NewSession(app.NewService(logger), seed)
	if err != nil {
		return err
	}
	for i := range players {
		if _, err := sess.Apply(domain.AddPlayer{PlayerID: seatID(i), Kind: domain.KindBot}); err != nil {
			return err
		}
	}

	// One second per turn: every TICK is a timeout.
	rules := cfg.Scoring()
	if _, err := sess.Apply(domain.StartGame{HandSizes: cfg.HandSizesFor(players), TurnSeconds: 1, Scoring: &rules}); err != nil {
		return err
	}

	snap := sess.Snapshot()
	pterm.DefaultHeader.WithFullWidth().Printfln("Oh Hell  seed=%s  players=%d  hands=%v", seed, players, snap.HandSizes)

	var tricks []app.TrickWonPayload
	for {
		snap = sess.Snapshot()
		cmd, ok := nextCommand(agents, snap)
		switch {
		case ok:
		case snap.Phase == domain.PhaseBidding:
			cmd = domain.PlaceBid{PlayerID: snap.Turn, Bid: domain.LegalBids(snap, snap.Turn)[0]}
		case snap.Phase == domain.PhaseTrick:
			cmd = domain.Tick{}
		case snap.Phase == domain.PhaseScoring:
			if err := renderHand(snap, tricks); err != nil {
				return err
			}
			tricks = nil
			cmd = domain.NextHand{}
		case snap.Phase == domain.PhaseRoundEnd:
			return renderStandings(snap)
		default:
			return fmt.Errorf("unexpected phase %s", snap.Phase)
		}

		events, err := sess.Apply(cmd)
		if err != nil {
			return fmt.Errorf("%s rejected: %w", cmd.Type(), err)
		}
		for _, ev := range events {
			if won, ok := ev.Payload.(app.TrickWonPayload); ok {
				tricks = append(tricks, won)
			}
		}
	}
}

func renderHand(s domain.GameState, tricks []app.TrickWonPayload) error {
	pterm.DefaultSection.Printfln("Hand %d of %d: %d cards, trump %s", s.RoundIndex+1, len(s.HandSizes), s.CurrentHandSize(), s.Trump)

	if len(tricks) > 0 {
		rows := pterm.TableData{{"Trick", "Plays", "Winner"}}
		for i, t := range tricks {
			plays := make([]string, 0, len(t.Plays))
			for _, p := range t.Plays {
				plays = append(plays, fmt.Sprintf("%s:%s", p.PlayerID, p.Card))
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), strings.Join(plays, "  "), t.Winner})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
	}

	rows := pterm.TableData{{"Player", "Bid", "Won", "Hand", "Total"}}
	for _, p := range s.Players {
		bid, won := s.Bids[p.ID], s.TableWins[p.ID]
		name := p.ID
		if bid == won {
			name = pterm.Green(p.ID)
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(bid),
			strconv.Itoa(won),
			strconv.Itoa(s.HandScores[p.ID]),
			strconv.Itoa(s.Scores[p.ID]),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func renderStandings(s domain.GameState) error {
	pterm.DefaultSection.Println("Final standings")
	standings := domain.Standings(s)
	bars := make([]pterm.Bar, 0, len(standings))
	for _, id := range standings {
		bars = append(bars, pterm.Bar{Label: id, Value: s.Scores[id]})
	}
	if err := pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("%s wins with %d points", standings[0], s.Scores[standings[0]])
	return nil
}
