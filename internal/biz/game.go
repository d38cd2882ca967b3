package biz

import (
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/biz/validator"
	"github.com/yola1107/twisted/internal/model"
)

func (e *Engine) startGame(cmd *StartGame) (Result, error) {
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.HasPlayers(l, e.opts.Rules.MinPlayers); err != nil {
		return Result{}, err
	}
	if e.opts.RequireReady {
		if err := validator.AllReady(l); err != nil {
			return Result{}, err
		}
	}
	if err := validator.NoLiveGame(e.stores, l); err != nil {
		return Result{}, err
	}

	if old := e.boundGame(l); old != nil {
		e.releaseGame(old)
	}
	if l.Deck != nil {
		e.stores.ReleaseDeck(l.Deck)
	}

	deck := e.opts.Rules.BuildDeck()
	deck.Shuffle(e.rand)
	l.Deck = deck
	e.stores.SaveDeck(deck)

	g := model.NewGameState(l, model.NewTable())
	g.Start(deck, e.opts.Rules.HandSize)
	l.GameStateID = g.ID
	e.stores.Games.Save(g.ID, g)
	e.stores.SaveTable(g.Table)
	e.touch(l)

	log.Infof("game started. %s %s first=%v", g.Desc(), l.Desc(), g.CurrentPlayer().Desc())
	return events(broadcast(l, EvGameStarted, GameData{Game: gameView(g)})), nil
}

func (e *Engine) changeTurn(actor Actor, cmd *ChangeTurn) (Result, error) {
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	p, err := e.actorPlayer(actor)
	if err != nil {
		return Result{}, err
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}
	if err := validator.InProgress(g); err != nil {
		return Result{}, err
	}
	if err := validator.TurnOf(g, p); err != nil {
		return Result{}, err
	}

	g.NextTurn()
	e.touch(l)
	next := g.CurrentPlayer()
	log.Debugf("turn changed. %s next=%v", g.Desc(), next.Desc())
	return events(broadcast(l, EvChangeTurn, ChangeTurnData{
		GameStateID:        g.ID,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		CurrentPlayerID:    next.ID,
	})), nil
}

func (e *Engine) playedCard(cmd *PlayedCard) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	var target *model.Player
	if cmd.TargetPlayerID != nil {
		if target, err = validator.Player(e.stores, *cmd.TargetPlayerID); err != nil {
			return Result{}, err
		}
	}
	c, err := validator.Card(e.stores, cmd.CardID)
	if err != nil {
		return Result{}, err
	}
	t, err := validator.Table(e.stores, cmd.TableID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.TableOfGame(g, t); err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}
	if target != nil {
		if err := validator.InLobby(l, target); err != nil {
			return Result{}, err
		}
	}
	if err := validator.CardInHand(p, c); err != nil {
		return Result{}, err
	}
	if err := validator.InProgress(g); err != nil {
		return Result{}, err
	}
	if err := validator.TurnOf(g, p); err != nil {
		return Result{}, err
	}

	p.Hand().Remove(c.ID)
	t.Dispose(c)
	if c.Kind == model.KindTwisted && target != nil {
		applyEffect(g, c.Effect, p, target)
	}
	e.touch(l)
	log.Debugf("card played. %s player=%s card=%s", g.Desc(), p.Desc(), c.Desc())

	evs := []Event{broadcast(l, EvPlayedCard, PlayedCardData{
		PlayerID:       p.ID,
		TargetPlayerID: cmd.TargetPlayerID,
		Card:           cardView(c),
		Game:           gameView(g),
	})}
	return events(e.settle(g, evs)...), nil
}

// applyEffect runs a Twisted card played against target.
// SneakAPeek has no immediate effect: the peek resolves through PickedCard with fromOpponent.
func applyEffect(g *model.GameState, effect model.Effect, actor, target *model.Player) {
	switch effect {
	case model.EffectSwapHand:
		model.SwapHands(actor, target)
	case model.EffectSwitchLight:
		g.ToggleLight()
	case model.EffectSneakAPeek, model.EffectNone:
	default:
		log.Warnf("unknown effect %v", effect)
	}
}

// pickedCard draws the deck's top card while the deck has cards and the pick is
// not from an opponent. Otherwise the named card moves out of the previous owner's hand.
func (e *Engine) pickedCard(cmd *PickedCard) (Result, error) {
	newOwner, err := validator.Player(e.stores, cmd.PlayerNewID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	var deck *model.Deck
	if !cmd.FromOpponent && l.Deck != nil {
		if deck, err = validator.Deck(e.stores, l); err != nil {
			return Result{}, err
		}
	}
	useDeck := deck != nil && !deck.Empty()

	var prev *model.Player
	var c *model.Card
	if !useDeck {
		if prev, err = validator.Player(e.stores, cmd.PlayerPreviousID); err != nil {
			return Result{}, err
		}
		if c, err = validator.Card(e.stores, cmd.CardID); err != nil {
			return Result{}, err
		}
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, newOwner); err != nil {
		return Result{}, err
	}
	if !useDeck {
		if err := validator.InLobby(l, prev); err != nil {
			return Result{}, err
		}
		if err := validator.CardInHand(prev, c); err != nil {
			return Result{}, err
		}
	}
	if err := validator.InProgress(g); err != nil {
		return Result{}, err
	}
	if err := validator.TurnOf(g, newOwner); err != nil {
		return Result{}, err
	}

	if useDeck {
		c, _ = deck.Draw()
		newOwner.Hand().Add(c)
	} else {
		model.Transfer(prev.Hand(), newOwner.Hand(), c.ID)
	}
	e.touch(l)
	log.Debugf("card picked. %s new=%s deck=%v card=%s", g.Desc(), newOwner.Desc(), useDeck, c.Desc())

	evs := []Event{broadcast(l, EvPickedCard, PickedCardData{
		PlayerPreviousID: cmd.PlayerPreviousID,
		PlayerNewID:      newOwner.ID,
		FromOpponent:     !useDeck,
		Card:             cardView(c),
		Game:             gameView(g),
	})}
	return events(e.settle(g, evs)...), nil
}

func (e *Engine) cardDiscarded(cmd *CardDiscarded) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	c, err := validator.Card(e.stores, cmd.CardID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}
	if err := validator.CardInHand(p, c); err != nil {
		return Result{}, err
	}
	if err := validator.InProgress(g); err != nil {
		return Result{}, err
	}
	if err := validator.TurnOf(g, p); err != nil {
		return Result{}, err
	}

	p.Hand().Remove(c.ID)
	g.Table.Dispose(c)
	e.touch(l)

	evs := []Event{broadcast(l, EvDiscardedCard, DiscardedCardData{
		PlayerID: p.ID,
		Card:     cardView(c),
		Game:     gameView(g),
	})}
	return events(e.settle(g, evs)...), nil
}

func (e *Engine) matchCards(cmd *MatchCards) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	c1, err := validator.Card(e.stores, cmd.Card1ID)
	if err != nil {
		return Result{}, err
	}
	c2, err := validator.Card(e.stores, cmd.Card2ID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}
	if err := validator.CardInHand(p, c1); err != nil {
		return Result{}, err
	}
	if err := validator.CardInHand(p, c2); err != nil {
		return Result{}, err
	}
	if err := validator.Distinct(c1, c2); err != nil {
		return Result{}, err
	}
	if err := validator.InProgress(g); err != nil {
		return Result{}, err
	}
	if err := validator.TurnOf(g, p); err != nil {
		return Result{}, err
	}
	if err := validator.Match(c1, c2); err != nil {
		return Result{}, err
	}

	p.Hand().Remove(c1.ID)
	p.Hand().Remove(c2.ID)
	g.Table.Dispose(c1, c2)
	e.touch(l)

	evs := []Event{broadcast(l, EvCardsMatched, CardsMatchedData{
		PlayerID: p.ID,
		Cards:    cardViews([]*model.Card{c1, c2}),
		Game:     gameView(g),
	})}
	return events(e.settle(g, evs)...), nil
}

// gameOver ends a game whose win condition holds. Asking again after the end
// re-announces the same winner.
func (e *Engine) gameOver(cmd *GameOver) (Result, error) {
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.GameOfLobby(g, l); err != nil {
		return Result{}, err
	}
	if err := validator.Started(g); err != nil {
		return Result{}, err
	}
	if g.Status == model.StEnded {
		return events(gameEnded(g)), nil
	}
	if err := validator.HasEnded(g); err != nil {
		return Result{}, err
	}

	g.End()
	e.touch(l)
	log.Infof("game over. %s winner=%v", g.Desc(), winnerDesc(g))
	return events(gameEnded(g)), nil
}
