package shell

import (
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("brainjam_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// Run executes one shell command line and returns its output, or nil and
// an error string.
func Run(L *lua.LState) int {
	line := L.ToString(1)
	sc := getShell(L)
	r, err := sc.dispatch(line)
	if errors.Is(err, errExit) {
		err = errors.New("exit is not allowed in scripts")
	}
	if err != nil {
		log.Err(err).Str("line", line).Msg("error-executing-script-line")
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	if r == nil {
		L.Push(lua.LString(""))
	} else {
		L.Push(lua.LString(r.message))
	}
	// return number of results pushed to stack.
	return 1
}

// Legal returns the current legal moves as a table of names.
func Legal(L *lua.LState) int {
	sc := getShell(L)
	tbl := L.NewTable()
	if t, err := sc.current(); err == nil {
		for _, m := range t.gp.LegalMoves() {
			tbl.Append(lua.LString(formatMove(sc.layout, m)))
		}
	}
	L.Push(tbl)
	return 1
}

// Depth returns the current depth, or -1 with no game dealt.
func Depth(L *lua.LState) int {
	sc := getShell(L)
	t, err := sc.current()
	if err != nil {
		L.Push(lua.LNumber(-1))
		return 1
	}
	L.Push(lua.LNumber(t.gp.Depth()))
	return 1
}

// Solved reports whether the current position is a solution.
func Solved(L *lua.LState) int {
	sc := getShell(L)
	t, err := sc.current()
	L.Push(lua.LBool(err == nil && t.game.IsEndpoint()))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("brainjam_shell", lsc)
	L.SetGlobal("brainjam_run", L.NewFunction(Run))
	L.SetGlobal("brainjam_legal", L.NewFunction(Legal))
	L.SetGlobal("brainjam_depth", L.NewFunction(Depth))
	L.SetGlobal("brainjam_solved", L.NewFunction(Solved))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("script-failed")
		return nil, err
	}
	return msg("ran " + filepath), nil
}
