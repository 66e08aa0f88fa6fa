package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxLines = 200

var (
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	casinoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("171")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	client *roomClient
	input  textinput.Model
	lines  []string
	width  int
}

func newModel(client *roomClient) model {
	ti := textinput.New()
	ti.Placeholder = "open | join <bet> | hit | stand | double | split | hand | balance | send <who> <amt> | quit"
	ti.Focus()
	ti.CharLimit = 80

	return model{
		client: client,
		input:  ti,
		lines: []string{
			casinoStyle.Render("Blackjack room — type a command and press enter"),
		},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m = m.runCommand(line)
			return m, nil
		}

	case serverMessage:
		m = m.addLine(m.formatServerMessage(msg))
		if msg.Type == "disconnected" {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("esc/ctrl+c to quit"))
	return b.String()
}

func (m model) addLine(line string) model {
	if line == "" {
		return m
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	return m
}

func (m model) runCommand(line string) model {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])

	var err error
	switch cmd {
	case "open":
		err = m.client.openTable()
	case "join":
		if len(parts) < 2 {
			return m.addLine(warnStyle.Render("usage: join <bet>"))
		}
		err = m.client.joinTable(parts[1])
	case "hit", "stand", "double", "split":
		err = m.client.action(cmd)
	case "hand":
		err = m.client.queryHand()
	case "balance", "bal":
		err = m.client.queryBalance()
	case "send":
		if len(parts) < 3 {
			return m.addLine(warnStyle.Render("usage: send <identity> <amount>"))
		}
		amount, convErr := strconv.Atoi(parts[2])
		if convErr != nil {
			return m.addLine(warnStyle.Render("invalid amount"))
		}
		err = m.client.transfer(parts[1], amount)
	case "close":
		err = m.client.forceClose()
	case "state":
		err = m.client.queryState()
	default:
		return m.addLine(warnStyle.Render("unknown command: " + cmd))
	}

	if err != nil {
		return m.addLine(errStyle.Render("send failed: " + err.Error()))
	}
	return m
}

func (m model) formatServerMessage(msg serverMessage) string {
	switch msg.Type {
	case "welcome":
		var data struct {
			Name    string `json:"name"`
			Balance int    `json:"balance"`
			Fresh   bool   `json:"fresh"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return ""
		}
		if data.Fresh {
			return okStyle.Render(fmt.Sprintf("Welcome %s! Starting balance: $%d", data.Name, data.Balance))
		}
		return okStyle.Render(fmt.Sprintf("Welcome back %s. Balance: $%d", data.Name, data.Balance))

	case "error":
		var data struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return errStyle.Render("error")
		}
		return errStyle.Render(fmt.Sprintf("[%s] %s", data.Code, data.Message))

	case "balance_result":
		var data struct {
			Identity string `json:"identity"`
			Balance  int    `json:"balance"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return ""
		}
		return okStyle.Render(fmt.Sprintf("Balance: $%d", data.Balance))

	case "transfer_result":
		var data struct {
			To          string `json:"to"`
			Amount      int    `json:"amount"`
			FromBalance int    `json:"fromBalance"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return ""
		}
		return okStyle.Render(fmt.Sprintf("Sent $%d to %s. New balance: $%d", data.Amount, data.To, data.FromBalance))

	case "hand_info":
		var data struct {
			HandIndex int      `json:"handIndex"`
			Cards     []string `json:"cards"`
			Total     int      `json:"total"`
			Stake     int      `json:"stake"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return ""
		}
		return infoStyle.Render(fmt.Sprintf("Hand %d: %s | total %d | stake $%d",
			data.HandIndex+1, strings.Join(data.Cards, " "), data.Total, data.Stake))

	case "state_result":
		var data struct {
			Active    bool   `json:"active"`
			State     string `json:"state"`
			LobbyOpen bool   `json:"lobbyOpen"`
			Players   []struct {
				Name   string `json:"name"`
				Bet    int    `json:"bet"`
				Staked int    `json:"staked"`
				Hands  int    `json:"hands"`
			} `json:"players"`
		}
		if json.Unmarshal(msg.Data, &data) != nil {
			return ""
		}
		if !data.Active {
			return infoStyle.Render("No active table")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Table state=%s lobbyOpen=%v players=%d", data.State, data.LobbyOpen, len(data.Players))
		for i, p := range data.Players {
			fmt.Fprintf(&b, "\n  #%d %s bet:$%d staked:$%d hands:%d", i+1, p.Name, p.Bet, p.Staked, p.Hands)
		}
		return infoStyle.Render(b.String())

	case "game_event":
		return m.formatGameEvent(msg.Data)

	case "disconnected":
		return errStyle.Render("Disconnected from server")
	}
	return ""
}

func (m model) formatGameEvent(raw json.RawMessage) string {
	var e struct {
		Event       string   `json:"event"`
		Name        string   `json:"name"`
		HandIndex   *int     `json:"handIndex"`
		Pass        string   `json:"pass"`
		Action      string   `json:"action"`
		Card        string   `json:"card"`
		Hand        []string `json:"hand"`
		Total       int      `json:"total"`
		DealerTotal int      `json:"dealerTotal"`
		Stake       int      `json:"stake"`
		Payout      int      `json:"payout"`
		Outcome     string   `json:"outcome"`
		Busted      bool     `json:"busted"`
		Actions     []string `json:"actions"`
		Bet         int      `json:"bet"`
		Balance     int      `json:"balance"`
		Balances    []struct {
			Identity string `json:"identity"`
			Balance  int    `json:"balance"`
		} `json:"balances"`
		Reason      string `json:"reason"`
		Opener      string `json:"opener"`
		LobbyWaitMs int    `json:"lobbyWaitMs"`
		Players     int    `json:"players"`
	}
	if json.Unmarshal(raw, &e) != nil {
		return ""
	}

	hand := strings.Join(e.Hand, " ")
	handNo := 1
	if e.HandIndex != nil {
		handNo = *e.HandIndex + 1
	}

	switch e.Event {
	case "table_opened":
		return casinoStyle.Render(fmt.Sprintf("%s opened a blackjack table! join <bet> to enter — %ds lobby",
			e.Opener, e.LobbyWaitMs/1000))
	case "player_joined":
		return okStyle.Render(fmt.Sprintf("%s joined with $%d (balance $%d)", e.Name, e.Bet, e.Balance))
	case "round_started":
		return casinoStyle.Render(fmt.Sprintf("Dealing round — %d players, good luck!", e.Players))
	case "card_dealt":
		switch e.Pass {
		case "first":
			return infoStyle.Render(fmt.Sprintf("%s — first card: %s", e.Name, hand))
		case "second":
			return infoStyle.Render(fmt.Sprintf("%s — second card: %s | total %d", e.Name, hand, e.Total))
		case "split":
			return infoStyle.Render(fmt.Sprintf("%s hand %d: %s | total %d", e.Name, handNo, hand, e.Total))
		default:
			return infoStyle.Render(fmt.Sprintf("%s draws %s | total %d", e.Name, e.Card, e.Total))
		}
	case "dealer_upcard":
		return casinoStyle.Render("Dealer shows " + e.Card)
	case "turn_prompt":
		return warnStyle.Render(fmt.Sprintf("%s's turn (hand %d) — %s | total %d | %s",
			e.Name, handNo, hand, e.Total, strings.Join(e.Actions, "/")))
	case "player_action":
		switch e.Action {
		case "hit":
			if e.Busted {
				return errStyle.Render(fmt.Sprintf("%s busts on hand %d with %d", e.Name, handNo, e.Total))
			}
			return infoStyle.Render(fmt.Sprintf("%s hits: %s | total %d", e.Name, e.Card, e.Total))
		case "stand":
			return okStyle.Render(fmt.Sprintf("%s stands on hand %d at %d", e.Name, handNo, e.Total))
		case "double":
			if e.Busted {
				return errStyle.Render(fmt.Sprintf("%s doubles to $%d and busts with %d", e.Name, e.Stake, e.Total))
			}
			return casinoStyle.Render(fmt.Sprintf("%s doubles to $%d and draws %s | total %d", e.Name, e.Stake, e.Card, e.Total))
		case "split":
			return okStyle.Render(fmt.Sprintf("%s splits into two hands!", e.Name))
		}
	case "dealer_reveal":
		return casinoStyle.Render(fmt.Sprintf("Dealer reveals %s | total %d", hand, e.Total))
	case "dealer_draw":
		return casinoStyle.Render(fmt.Sprintf("Dealer draws %s | total %d", e.Card, e.Total))
	case "hand_result":
		switch e.Outcome {
		case "blackjack":
			return okStyle.Render(fmt.Sprintf("%s (hand %d) NATURAL BLACKJACK! payout $%d", e.Name, handNo, e.Payout))
		case "win":
			return okStyle.Render(fmt.Sprintf("%s (hand %d) wins %d vs dealer %d — $%d", e.Name, handNo, e.Total, e.DealerTotal, e.Payout))
		case "push":
			return infoStyle.Render(fmt.Sprintf("%s (hand %d) pushes at %d — $%d returned", e.Name, handNo, e.Total, e.Payout))
		case "bust":
			return errStyle.Render(fmt.Sprintf("%s (hand %d) busted with %d — lost $%d", e.Name, handNo, e.Total, e.Stake))
		default:
			return errStyle.Render(fmt.Sprintf("%s (hand %d) %d lost to dealer %d — lost $%d", e.Name, handNo, e.Total, e.DealerTotal, e.Stake))
		}
	case "round_ended":
		var b strings.Builder
		b.WriteString(fmt.Sprintf("Round over — dealer %d. Balances:", e.DealerTotal))
		for _, bal := range e.Balances {
			fmt.Fprintf(&b, " %s:$%d", bal.Identity, bal.Balance)
		}
		return casinoStyle.Render(b.String())
	case "table_closed":
		switch e.Reason {
		case "empty":
			return warnStyle.Render("Nobody joined — table closed")
		case "forced":
			return warnStyle.Render("Table forcibly closed; bets refunded")
		default:
			return infoStyle.Render("Table closed")
		}
	}
	return ""
}
