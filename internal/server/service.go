package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/game"
)

// Service translates wire requests into ledger and table-manager calls and
// maps the rejection taxonomy onto wire error codes.
type Service struct {
	manager     *game.Manager
	ledger      *bank.Ledger
	logger      *log.Logger
	adminSecret string
}

// NewService creates the request-routing service. An empty adminSecret
// disables the admin requests entirely.
func NewService(manager *game.Manager, ledger *bank.Ledger, adminSecret string, logger *log.Logger) *Service {
	return &Service{
		manager:     manager,
		ledger:      ledger,
		adminSecret: adminSecret,
		logger:      logger.WithPrefix("service"),
	}
}

// Hello registers the identity, minting the starting balance on first sight.
func (s *Service) Hello(data HelloData) WelcomeData {
	balance, fresh := s.ledger.Ensure(data.Identity)
	admin := s.adminSecret != "" && data.AdminToken == s.adminSecret
	if fresh {
		s.logger.Info("new identity", "identity", data.Identity, "name", data.Name, "balance", balance)
	}
	return WelcomeData{
		Identity: data.Identity,
		Name:     data.Name,
		Balance:  balance,
		Fresh:    fresh,
		Admin:    admin,
	}
}

// OpenTable opens a lobby, or reports that one is already open.
func (s *Service) OpenTable(identity, name string) error {
	return s.manager.Open(identity, name)
}

// JoinTable parses the bet text and seats the identity. Non-numeric bets are
// rejected as invalid before the core sees them.
func (s *Service) JoinTable(identity, name, betText string) error {
	bet, err := strconv.Atoi(strings.TrimSpace(betText))
	if err != nil {
		return game.ErrInvalidBet
	}
	return s.manager.Join(identity, name, bet)
}

// HandleAction parses and applies hit/stand/double/split.
func (s *Service) HandleAction(identity, actionText string) error {
	var action game.Action
	switch strings.ToLower(strings.TrimSpace(actionText)) {
	case "hit":
		action = game.ActionHit
	case "stand":
		action = game.ActionStand
	case "double":
		action = game.ActionDouble
	case "split":
		action = game.ActionSplit
	default:
		return game.ErrIllegalAction
	}
	return s.manager.Act(identity, action)
}

// HandQuery returns the identity's current hand, regardless of turn.
func (s *Service) HandQuery(identity string) (HandInfoData, error) {
	view, err := s.manager.HandQuery(identity)
	if err != nil {
		return HandInfoData{}, err
	}
	return HandInfoData{
		HandIndex: view.HandIndex,
		Cards:     handStrings(view.Hand),
		Total:     view.Total,
		Stake:     view.Stake,
	}, nil
}

// Balance answers a balance query, initializing the identity if unseen.
func (s *Service) Balance(identity string) BalanceData {
	return BalanceData{
		Identity: identity,
		Balance:  s.ledger.Balance(identity),
	}
}

// Transfer moves chips between identities, independent of any table.
func (s *Service) Transfer(from string, data TransferData) (TransferResultData, error) {
	if err := s.ledger.Transfer(from, data.To, data.Amount); err != nil {
		return TransferResultData{}, err
	}
	return TransferResultData{
		From:        from,
		To:          data.To,
		Amount:      data.Amount,
		FromBalance: s.ledger.Balance(from),
	}, nil
}

// ForceClose aborts the active table, refunding escrowed stakes.
func (s *Service) ForceClose() error {
	return s.manager.ForceClose()
}

// AdminState dumps the table slot.
func (s *Service) AdminState() StateData {
	summary, active := s.manager.AdminState()
	if !active {
		return StateData{Active: false}
	}
	players := make([]StatePlayer, 0, len(summary.Players))
	for _, p := range summary.Players {
		players = append(players, StatePlayer{
			Identity: p.Identity,
			Name:     p.Name,
			Bet:      p.Bet,
			Staked:   p.Staked,
			Hands:    p.Hands,
		})
	}
	return StateData{
		Active:    true,
		State:     summary.State,
		LobbyOpen: summary.LobbyOpen,
		Players:   players,
	}
}

// ErrorCode maps a rejection to its wire code. Unrecognized errors are
// reported as internal without leaking detail.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrTableOpen):
		return "table_open"
	case errors.Is(err, game.ErrNoActiveLobby):
		return "no_lobby"
	case errors.Is(err, game.ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, game.ErrAlreadySeated):
		return "already_seated"
	case errors.Is(err, game.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, game.ErrIllegalAction):
		return "illegal_action"
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, bank.ErrUnknownAccount):
		return "unknown_target"
	case errors.Is(err, bank.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}
