package capability

// Names of the capabilities the orchestrator relies on.
const (
	RetrieveConversations = "retrieve_conversations"
	EvaluateResponse      = "evaluate_response"
	SubmitChangeRequest   = "submit_change_request"
)

// Definition is the documented contract of a well-known capability.
type Definition struct {
	Name        string
	Description string
	Parameters  Schema
}

// Definitions lists the contracts of the well-known capabilities.
var Definitions = []*Definition{
	{
		Name:        RetrieveConversations,
		Description: "Retrieves the latest chatbot conversations with user messages and bot responses.",
		Parameters: Schema{
			"limit": {Type: TypeInteger, Description: "Number of conversations to return", Default: 5},
		},
	},
	{
		Name:        EvaluateResponse,
		Description: "Evaluates a chatbot response and returns a score from 1 to 5 with a comment.",
		Parameters: Schema{
			"question": {Type: TypeString, Description: "The user's question", Required: true},
			"answer":   {Type: TypeString, Description: "The chatbot's response", Required: true},
		},
	},
	{
		Name:        SubmitChangeRequest,
		Description: "Opens a change request (pull request) updating the system prompt. State changing: gated by approval.",
		Parameters: Schema{
			"prompt_text": {Type: TypeString, Description: "The updated prompt text", Required: true},
			"reason":      {Type: TypeString, Description: "Reason for the update", Default: ""},
		},
	},
}

// LookupDefinition returns a well-known definition by name or nil.
func LookupDefinition(name string) *Definition {
	for _, def := range Definitions {
		if def.Name == name {
			return def
		}
	}
	return nil
}

// Bind creates a capability from a well-known definition and an invoker.
func (d *Definition) Bind(invoker Invoker) *Capability {
	return New(d.Name, d.Description, d.Parameters, invoker)
}

// BindFunc creates a capability from a well-known definition and a function.
func (d *Definition) BindFunc(fn Executable) *Capability {
	return NewFunc(d.Name, d.Description, d.Parameters, fn)
}
