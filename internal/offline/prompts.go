package offline

// QuickPrompt is a suggested question for common emergencies.
type QuickPrompt struct {
	Icon   string `json:"icon"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// QuickPrompts are offered to the user before the first message. Each one is
// answered by a rule in DefaultRules.
var QuickPrompts = []QuickPrompt{
	{Icon: "🩹", Label: "First Aid", Prompt: "How do I stop severe bleeding?"},
	{Icon: "🔥", Label: "Fire Escape", Prompt: "How do I escape a building fire?"},
	{Icon: "💧", Label: "Water", Prompt: "How do I purify water in an emergency?"},
	{Icon: "🏕️", Label: "Shelter", Prompt: "How do I build emergency shelter?"},
	{Icon: "🌍", Label: "Earthquake", Prompt: "What do I do during an earthquake?"},
	{Icon: "🆘", Label: "SOS Signal", Prompt: "How do I signal for rescue?"},
}
