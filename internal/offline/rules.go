// Package offline answers survival questions from a static keyword table when
// no remote model is reachable.
package offline

import "strings"

// Rule maps a set of case-insensitive keywords to one canned response.
type Rule struct {
	Keywords []string
	Response string
}

// Engine matches free text against an ordered rule table. The first rule with
// a keyword contained in the query wins; there is no ranking.
type Engine struct {
	rules    []Rule
	fallback string
}

// NewEngine copies rules and lower-cases their keywords. fallback is returned
// when nothing matches.
func NewEngine(rules []Rule, fallback string) *Engine {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		keywords := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			keywords[j] = strings.ToLower(k)
		}
		copied[i] = Rule{Keywords: keywords, Response: r.Response}
	}
	return &Engine{rules: copied, fallback: fallback}
}

// NewDefaultEngine returns an engine over the built-in survival rules.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultRules, DefaultResponse)
}

// Match returns the response for query.
func (e *Engine) Match(query string) string {
	q := strings.ToLower(query)
	for _, rule := range e.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(q, keyword) {
				return rule.Response
			}
		}
	}
	return e.fallback
}

// DefaultResponse lists the topics the built-in table covers.
const DefaultResponse = `📱 OFFLINE MODE - Limited responses available.

Ask about:
• First Aid (bleeding, burns, CPR, choking, fractures)
• Fire Safety (escape, extinguisher)
• Water (purification, drinking)
• Shelter (building, hypothermia)
• Natural Disasters (earthquake, flood, tornado)
• Signaling for Rescue

For detailed guides, check the Survival Guides section.`

// DefaultRules is the built-in table. Order matters: several keywords overlap
// ("help", "hypothermia", "water") and the earlier rule always wins.
var DefaultRules = []Rule{
	// First aid
	{
		Keywords: []string{"bleed", "bleeding", "cut", "wound"},
		Response: "⚠️ BLEEDING:\n1. Apply direct pressure with clean cloth\n2. Elevate wound above heart if possible\n3. Maintain pressure for 10-15 minutes\n4. If severe, apply tourniquet only as last resort\n5. Seek medical help immediately",
	},
	{
		Keywords: []string{"burn", "burned", "burning"},
		Response: "🔥 BURN TREATMENT:\n1. Cool burn with cool (not ice cold) water for 10-20 minutes\n2. Remove jewelry/tight items before swelling\n3. Cover with sterile, non-stick bandage\n4. Do NOT apply ice, butter, or ointments\n5. Seek medical help for severe burns",
	},
	{
		Keywords: []string{"cpr", "cardiac", "heart attack", "not breathing"},
		Response: "❤️ CPR BASICS:\n1. Call emergency services immediately\n2. Place hands center of chest\n3. Push hard and fast - 100-120 compressions/min\n4. Depth: 2 inches for adults\n5. Continue until help arrives or person breathes\nIf trained: 30 compressions, 2 rescue breaths",
	},
	{
		Keywords: []string{"choke", "choking", "heimlich"},
		Response: "🫁 CHOKING:\n1. Encourage coughing if they can\n2. If can't cough/speak: 5 back blows between shoulder blades\n3. Then 5 abdominal thrusts (Heimlich)\n4. Alternate until object dislodges\n5. Call emergency if unconscious",
	},
	{
		Keywords: []string{"fracture", "broken bone", "sprain"},
		Response: "🦴 FRACTURE/SPRAIN:\n1. Immobilize the injured area\n2. Apply ice wrapped in cloth (20 min on/off)\n3. Elevate above heart level\n4. Do NOT try to realign broken bones\n5. Seek medical attention",
	},

	// Fire safety
	{
		Keywords: []string{"fire", "flames", "smoke", "escape"},
		Response: "🔥 FIRE ESCAPE:\n1. Get low - crawl under smoke\n2. Feel doors before opening (if hot, use alternate exit)\n3. Close doors behind you to slow fire spread\n4. Never use elevators\n5. Once out, STAY OUT - call 911",
	},
	{
		Keywords: []string{"fire extinguisher", "put out fire", "extinguish"},
		Response: "🧯 FIRE EXTINGUISHER (PASS):\nP - Pull the pin\nA - Aim at base of fire\nS - Squeeze the handle\nS - Sweep side to side\nOnly fight small fires. If it spreads, evacuate immediately.",
	},

	// Water and food
	{
		Keywords: []string{"water", "purify", "purification", "drink", "clean water"},
		Response: "💧 WATER PURIFICATION:\n1. Boil for 1 minute (3 min at high altitude)\n2. OR use water purification tablets\n3. OR filter through cloth + let settle 30 min\n4. Avoid stagnant water if possible\n5. In emergency: clear running water > murky water",
	},
	{
		Keywords: []string{"food", "eat", "hungry", "edible"},
		Response: "🍎 FOOD SAFETY:\n1. Humans can survive 3 weeks without food (water is priority)\n2. Only eat plants you 100% recognize as safe\n3. Avoid mushrooms unless expert\n4. Cook all meat thoroughly\n5. Look for berries, nuts, roots (if you know them)",
	},

	// Shelter
	{
		Keywords: []string{"shelter", "cold", "hypothermia", "warmth"},
		Response: "🏕️ EMERGENCY SHELTER:\n1. Find or create windbreak\n2. Insulate from ground (leaves, branches)\n3. Small shelter = warmer (conserve body heat)\n4. Stay dry - wet = hypothermia risk\n5. Layer: debris, plastic, more debris for insulation",
	},
	{
		Keywords: []string{"hypothermia", "freezing", "too cold"},
		Response: "❄️ HYPOTHERMIA:\n1. Move to shelter/warm area\n2. Remove wet clothing\n3. Warm center of body first (chest, neck, head)\n4. Warm drinks if conscious\n5. Seek medical help - can be fatal",
	},

	// Natural disasters
	{
		Keywords: []string{"earthquake", "quake", "shaking"},
		Response: "🌍 EARTHQUAKE:\nDROP, COVER, HOLD ON\n1. Drop to hands and knees\n2. Cover head/neck under sturdy table\n3. Hold on until shaking stops\n4. If outside: move away from buildings\n5. After: Check for injuries, gas leaks, damage",
	},
	{
		Keywords: []string{"flood", "flooding", "water rising"},
		Response: "🌊 FLOOD SAFETY:\n1. Move to higher ground immediately\n2. Avoid walking/driving through flood water\n3. 6 inches of water = knock you down\n4. 1 foot of water = float a car\n5. Turn Around, Don't Drown - find alternate route",
	},
	{
		Keywords: []string{"tornado", "twister"},
		Response: "🌪️ TORNADO:\n1. Go to lowest floor interior room\n2. No basement: bathroom/closet in center of building\n3. Get under sturdy furniture\n4. Protect head and neck with arms/blankets\n5. Stay away from windows",
	},

	// Signal and rescue
	{
		Keywords: []string{"signal", "rescue", "help", "sos", "lost"},
		Response: "🆘 SIGNAL FOR RESCUE:\n1. Stay in one place (easier to find)\n2. Use SOS: 3 short, 3 long, 3 short signals (light/sound)\n3. Create large \"X\" or \"SOS\" visible from air\n4. Use mirror/reflective surface for signaling\n5. Make noise: whistle 3 times, pause, repeat",
	},

	// General
	{
		Keywords: []string{"help", "emergency", "what do i do"},
		Response: "🚨 GENERAL EMERGENCY:\n1. Stay calm - assess the situation\n2. Call emergency services if possible (911 in US)\n3. Ensure your safety first\n4. Survival priorities: Shelter > Water > Food\n5. Ask specific questions for detailed help",
	},
}
