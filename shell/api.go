package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/BR903/brainjam/cache"
	"github.com/BR903/brainjam/config"
	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
	"github.com/BR903/brainjam/solitaire"
	"github.com/BR903/brainjam/treestats"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) current() (*table, error) {
	if sc.cur == nil {
		return nil, errNoGame
	}
	return sc.cur, nil
}

func formatMove(l solitaire.Layout, m move.ID) string {
	s := l.CardName(m.Card())
	if m.Alt() {
		s += "'"
	}
	return s
}

// parseMove reads a card name or number, with a trailing ' or + for the
// card's second choice of destination.
func parseMove(l solitaire.Layout, s string) (move.ID, error) {
	alt := strings.HasSuffix(s, "'") || strings.HasSuffix(s, "+")
	s = strings.TrimRight(s, "'+")
	card, ok := l.ParseCard(s)
	if !ok {
		return move.Invalid, fmt.Errorf("%w: %q", move.ErrBadMove, s)
	}
	return move.New(card, alt), nil
}

func (sc *ShellController) positionLine(t *table) string {
	s := t.gp.Session()
	cur := t.gp.Current()
	var sb strings.Builder
	fmt.Fprintf(&sb, "game %d  depth %d", t.num, s.Depth(cur))
	if n := s.SolutionSize(cur); n > 0 {
		fmt.Fprintf(&sb, "  solution %d", n)
	}
	if s.Endpoint(cur) {
		sb.WriteString("  SOLVED")
	}
	if b := s.Better(cur); b != redo.NoPosition {
		fmt.Fprintf(&sb, "  better at depth %d", s.Depth(b))
	}
	if branches := s.Branches(cur); len(branches) > 0 {
		names := lo.Map(branches, func(b redo.Branch, _ int) string {
			return formatMove(sc.layout, b.Move)
		})
		sb.WriteString("  next: " + strings.Join(names, " "))
	}
	if !t.gp.Branching() {
		sb.WriteString("  [no branching]")
	}
	return sb.String()
}

func (sc *ShellController) display(t *table) *Response {
	return msg(t.game.String() + "\n" + sc.positionLine(t))
}

func (sc *ShellController) dealCmd(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: deal <n>")
	}
	n, err := strconv.ParseUint(cmd.args[0], 10, 32)
	if err != nil {
		return nil, err
	}
	if err := sc.deal(uint32(n)); err != nil {
		return nil, err
	}
	return sc.display(sc.cur), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	legal := t.gp.LegalMoves()
	if len(legal) == 0 {
		return msg("no legal moves"), nil
	}
	s := t.gp.Session()
	names := lo.Map(legal, func(m move.ID, _ int) string {
		name := formatMove(sc.layout, m)
		if s.NextPosition(t.gp.Current(), m) != redo.NoPosition {
			name += "*"
		}
		return name
	})
	return msg(strings.Join(names, " ")), nil
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: m <card>[']")
	}
	m, err := parseMove(sc.layout, cmd.args[0])
	if err != nil {
		return nil, err
	}
	if _, err := t.gp.Move(m); err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func countArg(cmd *shellcmd) (int, error) {
	if len(cmd.args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(cmd.args[0])
	if err != nil || n < 1 {
		return 0, errors.New("count must be a positive number")
	}
	return n, nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	n, err := countArg(cmd)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := t.gp.Undo(); err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
	}
	return sc.display(t), nil
}

func (sc *ShellController) redo(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) == 0 {
		err = t.gp.Redo()
	} else {
		var m move.ID
		if m, err = parseMove(sc.layout, cmd.args[0]); err == nil {
			err = t.gp.RedoMove(m)
		}
	}
	if err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) jump(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: jump <depth>")
	}
	depth, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := t.gp.JumpToDepth(depth); err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) prev(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if err := t.gp.SwitchToPrevious(); err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) better(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if err := t.gp.JumpToBetter(); err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) erase(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if err := t.gp.Erase(); err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) mark(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: mark push|pop|swap|drop|list")
	}
	switch cmd.args[0] {
	case "push":
		t.gp.PushBookmark()
		return msg(fmt.Sprintf("bookmarked depth %d", t.gp.Depth())), nil
	case "pop":
		err = t.gp.PopBookmark()
	case "swap":
		err = t.gp.SwapBookmark()
	case "drop":
		if err := t.gp.DropBookmark(); err != nil {
			return nil, err
		}
		return msg("dropped bookmark"), nil
	case "list":
		s := t.gp.Session()
		marks := s.Bookmarks().All()
		if len(marks) == 0 {
			return msg("no bookmarks"), nil
		}
		lines := lo.Map(marks, func(id redo.PosID, i int) string {
			return fmt.Sprintf("%d: depth %d", i+1, s.Depth(id))
		})
		return msg(strings.Join(lines, "\n")), nil
	default:
		return nil, errors.New("usage: mark push|pop|swap|drop|list")
	}
	if err != nil {
		return nil, err
	}
	return sc.display(t), nil
}

func (sc *ShellController) minimal(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	start := t.gp.Depth()
	if _, err := t.gp.FollowMinimalPath(); err != nil {
		return nil, err
	}
	resp := sc.display(t)
	resp.message += fmt.Sprintf("\nsolved in %d moves from depth %d", t.gp.Depth()-start, start)
	return resp, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, errors.New("expected on or off")
}

func (sc *ShellController) branching(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		on := sc.config.GetBool(config.ConfigBranching)
		if sc.cur != nil {
			on = sc.cur.gp.Branching()
		}
		return msg(fmt.Sprintf("branching %v", lo.Ternary(on, "on", "off"))), nil
	}
	on, err := parseOnOff(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.config.Set(config.ConfigBranching, on)
	if sc.cur != nil {
		sc.cur.gp.SetBranching(on)
	}
	return msg(fmt.Sprintf("branching %v", lo.Ternary(on, "on", "off"))), nil
}

func (sc *ShellController) checkMode(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg("check mode " + sc.config.GetString(config.ConfigCheckMode)), nil
	}
	mode, err := redo.ParseCheckMode(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.config.Set(config.ConfigCheckMode, mode.String())
	if sc.cur != nil {
		sc.cur.gp.SetCheckMode(mode)
	}
	return msg("check mode " + mode.String()), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	out, err := treestats.Collect(t.gp.Session()).YAML()
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(out, "\n")), nil
}

func (sc *ShellController) dump(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	s := t.gp.Session()
	st := treestats.Collect(s)
	var sb strings.Builder
	out, err := st.YAML()
	if err != nil {
		return nil, err
	}
	sb.WriteString(out)
	sb.WriteString("leaf depths:\n")
	if err := st.Histogram(&sb); err != nil {
		return nil, err
	}
	path := lo.Map(s.Path(t.gp.Current()), func(m move.ID, _ int) string {
		return formatMove(sc.layout, m)
	})
	sb.WriteString("path: " + strings.Join(path, " "))
	return msg(sb.String()), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	key := sc.layout.GameKey(t.num)
	if err := t.gp.Save(sc.store, key); err != nil {
		return nil, err
	}
	return msg("saved " + key), nil
}

func (sc *ShellController) games(cmd *shellcmd) (*Response, error) {
	keys, err := sc.store.Keys()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return msg("no saved games"), nil
	}
	return msg(strings.Join(keys, "\n")), nil
}

// reload throws away the in-memory session for the current game and
// replays it from the store.
func (sc *ShellController) reload(cmd *shellcmd) (*Response, error) {
	t, err := sc.current()
	if err != nil {
		return nil, err
	}
	cache.Evict(sc.layout.GameKey(t.num))
	sc.cur = nil
	if err := sc.deal(t.num); err != nil {
		return nil, err
	}
	return sc.display(sc.cur), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil || len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}

	key := cmd.args[0]
	value := cmd.args[1]

	sc.config.Set(key, value)

	err := sc.config.Write()
	if err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return msg(fmt.Sprintf("set config %s to %s and saved to file", key, value)), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb)
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}
