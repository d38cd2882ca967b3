package codes

import (
	"github.com/yola1107/kratos/v2/errors"
)

/*
	错误码
	  1xx 请求格式
	  2xx 资源不存在
	  3xx 状态/权限
	  4xx 归属
	  5xx 资源不足
	  6xx 持久化
*/

var (
	ErrInvalidPayload  = errors.New(100, "InvalidPayload", "invalid payload")
	ErrTooManyRequests = errors.New(101, "TooManyRequests", "too many requests")
	ErrServerShutdown  = errors.New(102, "ServerShutdown", "server is shutting down")

	ErrPlayerNotFound    = errors.New(200, "PlayerNotFound", "player not found")
	ErrLobbyNotFound     = errors.New(201, "LobbyNotFound", "lobby not found")
	ErrGameStateNotFound = errors.New(202, "GameStateNotFound", "game state not found")
	ErrCardNotFound      = errors.New(203, "CardNotFound", "card not found")
	ErrDeckNotFound      = errors.New(204, "DeckNotFound", "deck not found")
	ErrTableNotFound     = errors.New(205, "TableNotFound", "table not found")
	ErrSnapshotNotFound  = errors.New(206, "SnapshotNotFound", "snapshot not found")

	ErrNotYourTurn           = errors.New(300, "NotYourTurn", "not your turn")
	ErrGameNotInProgress     = errors.New(301, "GameNotInProgress", "game is not in progress")
	ErrGameHasNotEnded       = errors.New(302, "GameHasNotEnded", "game has not ended")
	ErrPlayerNotInLobby      = errors.New(303, "PlayerNotInLobby", "player is not in lobby")
	ErrNoPlayersInGame       = errors.New(304, "NoPlayersInGame", "not enough players in game")
	ErrLobbyAlreadyExists    = errors.New(305, "LobbyAlreadyExists", "lobby already exists")
	ErrFailedUserConnection  = errors.New(306, "FailedUserConnection", "username already taken")
	ErrPlayerAlreadyInLobby  = errors.New(307, "PlayerAlreadyInLobby", "player already in a lobby")
	ErrPlayersNotReady       = errors.New(308, "PlayersNotReady", "players are not ready")
	ErrGameAlreadyInProgress = errors.New(309, "GameAlreadyInProgress", "lobby already has a game in progress")
	ErrCardsDoNotMatch       = errors.New(310, "CardsDoNotMatch", "cards do not match")

	ErrCardNotInHand = errors.New(400, "CardNotInHand", "card not in hand")

	ErrInsufficientCards = errors.New(500, "InsufficientCards", "insufficient cards in deck")

	ErrSnapshotSaveFailed   = errors.New(600, "SnapshotSaveFailed", "failed to save game state")
	ErrSnapshotLoadFailed   = errors.New(601, "SnapshotLoadFailed", "failed to load game state")
	ErrSnapshotRemoveFailed = errors.New(602, "SnapshotRemoveFailed", "failed to remove game state")
	ErrSnapshotStale        = errors.New(603, "SnapshotStale", "game state overlaps a live lobby")
)

