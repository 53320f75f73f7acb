package protocol

// ParamFunc is the distinguished parameter naming a message's operation.
const ParamFunc = "func"

// UserPrefix is prepended to the caller's command name.
const UserPrefix = "user-"

// Function names exchanged with the server.
const (
	FuncRelease     = "release"
	FuncProtocol    = "protocol"
	FuncFlush1      = "flush1"
	FuncFlush2      = "flush2"
	FuncCrypto      = "client-Crypto"
	FuncPrompt      = "client-Prompt"
	FuncSetPassword = "client-SetPassword"
	FuncMessage     = "client-Message"

	FuncFstatInfo   = "client-FstatInfo"
	FuncOutputInfo  = "client-OutputInfo"
	FuncOutputText  = "client-OutputText"
	FuncOutputData  = "client-OutputData"
	FuncOutputError = "client-OutputError"
	FuncEditData    = "client-EditData"
	FuncErrorPause  = "client-ErrorPause"
)
