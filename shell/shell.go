package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/BR903/brainjam/cache"
	"github.com/BR903/brainjam/config"
	"github.com/BR903/brainjam/gameplay"
	"github.com/BR903/brainjam/redo"
	"github.com/BR903/brainjam/solitaire"
	"github.com/BR903/brainjam/store"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("no game dealt; use deal <n>")
	errExit              = errors.New("exit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// table is one dealt game together with its redo session.
type table struct {
	num  uint32
	game *solitaire.Game
	gp   *gameplay.Gameplay
}

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config
	store  store.Store
	layout solitaire.Layout
	cur    *table
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func layoutFromConfig(cfg *config.Config) solitaire.Layout {
	return solitaire.Layout{
		Suits:   cfg.GetInt(config.ConfigSuits),
		Ranks:   cfg.GetInt(config.ConfigRanks),
		Columns: cfg.GetInt(config.ConfigColumns),
		Cells:   cfg.GetInt(config.ConfigCells),
	}
}

func newController(cfg *config.Config, st store.Store, out io.Writer) (*ShellController, error) {
	l := layoutFromConfig(cfg)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &ShellController{
		out:    out,
		config: cfg,
		store:  st,
		layout: l,
	}, nil
}

// NewShellController opens the session store named by the config and sets
// up the line editor.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	st, err := store.OpenDataPath(cfg.GetString(config.ConfigSessionStore),
		cfg.GetString(config.ConfigDataPath))
	if err != nil {
		return nil, err
	}
	sc, err := newController(cfg, st, os.Stderr)
	if err != nil {
		st.Close()
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mbrainjam>\033[0m ",
		HistoryFile:     "/tmp/brainjam-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		// An alternate-destination move such as 7S' reads as an unclosed
		// quote.
		fields = strings.Fields(line)
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	log.Debug().Msgf("cmd: %v, args: %v, options: %v", cmd, args, options)
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// openTable deals game n and replays its saved session, if there is one.
func (sc *ShellController) openTable(n uint32) (*table, error) {
	g, err := solitaire.Deal(sc.layout, n)
	if err != nil {
		return nil, err
	}
	policy, err := redo.ParseGraftPolicy(sc.config.GetString(config.ConfigGraftPolicy))
	if err != nil {
		return nil, err
	}
	mode, err := redo.ParseCheckMode(sc.config.GetString(config.ConfigCheckMode))
	if err != nil {
		return nil, err
	}
	gp, err := gameplay.Start(g, sc.layout.ComparableLength(), policy)
	if err != nil {
		return nil, err
	}
	gp.SetBranching(sc.config.GetBool(config.ConfigBranching))
	gp.SetCheckMode(mode)
	rep, err := gp.Load(sc.store, sc.layout.GameKey(n))
	if err != nil {
		return nil, err
	}
	log.Info().Uint32("game", n).Int("positions", rep.Positions).Msg("opened-game")
	return &table{num: n, game: g, gp: gp}, nil
}

func (sc *ShellController) deal(n uint32) error {
	obj, err := cache.Load(sc.config, sc.layout.GameKey(n),
		func(cfg *config.Config, key string) (interface{}, error) {
			return sc.openTable(n)
		})
	if err != nil {
		return err
	}
	sc.cur = obj.(*table)
	return nil
}

// saveAll saves every open game whose session has changed.
func (sc *ShellController) saveAll() error {
	var errs []error
	cache.Each(func(key string, obj interface{}) {
		t, ok := obj.(*table)
		if !ok || !t.gp.Session().Dirty() {
			return
		}
		if err := t.gp.Save(sc.store, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("save-failed")
			errs = append(errs, err)
			return
		}
		log.Info().Str("key", key).Msg("saved-game")
	})
	return errors.Join(errs...)
}

func (sc *ShellController) dispatch(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "help", "h", "?":
		return sc.help(cmd)
	case "deal", "d":
		return sc.dealCmd(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "moves":
		return sc.moves(cmd)
	case "m", "move":
		return sc.move(cmd)
	case "u", "undo":
		return sc.undo(cmd)
	case "r", "redo":
		return sc.redo(cmd)
	case "jump", "j":
		return sc.jump(cmd)
	case "prev":
		return sc.prev(cmd)
	case "better":
		return sc.better(cmd)
	case "erase":
		return sc.erase(cmd)
	case "mark":
		return sc.mark(cmd)
	case "minimal":
		return sc.minimal(cmd)
	case "branching":
		return sc.branching(cmd)
	case "check":
		return sc.checkMode(cmd)
	case "stats":
		return sc.stats(cmd)
	case "dump":
		return sc.dump(cmd)
	case "save":
		return sc.save(cmd)
	case "games":
		return sc.games(cmd)
	case "reload":
		return sc.reload(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	case "exit", "quit":
		return nil, errExit
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, for non-interactive use.
func (sc *ShellController) Execute(line string) {
	sc.handle(line)
}

// handle runs line and reports whether the shell should exit.
func (sc *ShellController) handle(line string) bool {
	resp, err := sc.dispatch(line)
	if errors.Is(err, errExit) {
		if err := sc.saveAll(); err != nil {
			sc.showError(err)
		}
		return true
	}
	if errors.Is(err, errNoData) {
		return false
	}
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
	return false
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sc.handle("exit")
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if sc.handle(line) {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup saves anything unsaved and closes the session store.
func (sc *ShellController) Cleanup() {
	if err := sc.saveAll(); err != nil {
		log.Error().Err(err).Msg("cleanup-save-failed")
	}
	if err := sc.store.Close(); err != nil {
		log.Error().Err(err).Msg("store-close-failed")
	}
}
