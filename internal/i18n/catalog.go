// Package i18n holds the user-facing text of the game client in English
// and French, keyed by language tag and message key.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Key string

const (
	KeyTitle       Key = "title"
	KeyHome        Key = "home"
	KeyPlayer1     Key = "player1"
	KeyPlayer2     Key = "player2"
	KeyPlayerTurn  Key = "playerTurn"
	KeyWins        Key = "wins"
	KeyPlayAgain   Key = "playAgain"
	KeyResetScores Key = "resetScores"
	KeyColumnFull  Key = "columnFull"
	KeyBoardFull   Key = "boardFull"
	KeyHowToPlay   Key = "howToPlay"
	KeyDropBalls   Key = "rules.dropBalls"
	KeyBallsFall   Key = "rules.ballsFall"
	KeyConnect4    Key = "rules.connect4"
	KeyStartGame   Key = "startGame"
)

// staticKeys are sent to clients as a bundle; formatted keys are rendered
// per state instead.
var staticKeys = []Key{
	KeyTitle, KeyHome, KeyPlayer1, KeyPlayer2, KeyPlayAgain, KeyResetScores,
	KeyColumnFull, KeyBoardFull, KeyHowToPlay, KeyDropBalls, KeyBallsFall,
	KeyConnect4, KeyStartGame,
}

var (
	English = language.English
	French  = language.French
)

var texts = map[language.Tag]map[Key]string{
	English: {
		KeyTitle:       "Connect Four",
		KeyHome:        "Home",
		KeyPlayer1:     "Player 1",
		KeyPlayer2:     "Player 2",
		KeyPlayerTurn:  "Player %d's turn",
		KeyWins:        "Player %d wins!",
		KeyPlayAgain:   "Play again",
		KeyResetScores: "Reset scores",
		KeyColumnFull:  "This column is full",
		KeyBoardFull:   "The board is full, start a new game",
		KeyHowToPlay:   "How to play",
		KeyDropBalls:   "Take turns dropping balls into the columns",
		KeyBallsFall:   "Balls fall to the lowest free space",
		KeyConnect4:    "Line up four balls horizontally, vertically or diagonally to win",
		KeyStartGame:   "Start game",
	},
	French: {
		KeyTitle:       "Puissance 4",
		KeyHome:        "Accueil",
		KeyPlayer1:     "Joueur 1",
		KeyPlayer2:     "Joueur 2",
		KeyPlayerTurn:  "Au tour du joueur %d",
		KeyWins:        "Le joueur %d gagne !",
		KeyPlayAgain:   "Rejouer",
		KeyResetScores: "Réinitialiser les scores",
		KeyColumnFull:  "Cette colonne est pleine",
		KeyBoardFull:   "La grille est pleine, lancez une nouvelle partie",
		KeyHowToPlay:   "Comment jouer",
		KeyDropBalls:   "Lâchez chacun votre tour une boule dans une colonne",
		KeyBallsFall:   "La boule tombe dans la case libre la plus basse",
		KeyConnect4:    "Alignez quatre boules horizontalement, verticalement ou en diagonale pour gagner",
		KeyStartGame:   "Commencer la partie",
	},
}

// Catalog renders messages for the supported languages.
type Catalog struct {
	cat     *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
}

func New() *Catalog {
	tags := []language.Tag{English, French}
	b := catalog.NewBuilder(catalog.Fallback(English))
	for tag, msgs := range texts {
		for key, text := range msgs {
			// Keys and texts are static; SetString only fails on malformed tags.
			_ = b.SetString(tag, string(key), text)
		}
	}
	return &Catalog{cat: b, matcher: language.NewMatcher(tags), tags: tags}
}

// Supported lists the languages the catalog has text for, default first.
func (c *Catalog) Supported() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Match resolves a client supplied tag to a supported one. Unknown or
// malformed values fall back to English.
func (c *Catalog) Match(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return English
	}
	tag, err := language.Parse(value)
	if err != nil {
		return English
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return English
	}
	return c.tags[idx]
}

// Toggle switches between English and French.
func Toggle(tag language.Tag) language.Tag {
	if tag == French {
		return English
	}
	return French
}

func (c *Catalog) printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(c.cat))
}

// Text renders key in tag, formatting args into the message.
func (c *Catalog) Text(tag language.Tag, key Key, args ...any) string {
	return c.printer(tag).Sprintf(string(key), args...)
}

// Bundle returns every static message for tag.
func (c *Catalog) Bundle(tag language.Tag) map[string]string {
	p := c.printer(tag)
	out := make(map[string]string, len(staticKeys))
	for _, key := range staticKeys {
		out[string(key)] = p.Sprintf(string(key))
	}
	return out
}
