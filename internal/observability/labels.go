package observability

import "strings"

// OtherLabel stands in for any command name outside knownCommands.
const OtherLabel = "other"

const userPrefix = "user-"

var knownCommands = map[string]struct{}{}

func init() {
	for _, name := range strings.Fields(`
		add annotate branch branches change changes client clients counter
		counters delete depot depots describe diff diff2 dirs edit filelog
		files fix fixes fstat group groups have info integrate integrated job
		jobs label labels labelsync lock login logout move opened passwd print
		protect reconcile reopen resolve resolved revert shelve sizes status
		stream streams submit sync tag tickets unlock unshelve user users
		where workspace workspaces`) {
		knownCommands[name] = struct{}{}
	}
}

func commandLabel(command string) string {
	if _, ok := knownCommands[command]; ok {
		return command
	}
	return OtherLabel
}

// funcLabel bounds the user- funcs a client sends; server callbacks pass
// through.
func funcLabel(fn string) string {
	if rest, ok := strings.CutPrefix(fn, userPrefix); ok {
		return userPrefix + commandLabel(rest)
	}
	return fn
}
