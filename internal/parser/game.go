package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var exeToGame = map[string]string{
	"dota2":                            "Dota 2",
	"cs2":                              "Counter-Strike 2",
	"csgo":                             "Counter-Strike: Global Offensive",
	"hl2":                              "Half-Life 2",
	"portal2":                          "Portal 2",
	"left4dead2":                       "Left 4 Dead 2",
	"tf_win64":                         "Team Fortress 2",
	"fortniteclient-win64-shipping":    "Fortnite",
	"fortniteclient-win64-shipping_be": "Fortnite",
	"rocketleague":                     "Rocket League",
	"league of legends":                "League of Legends",
	"valorant-win64-shipping":          "Valorant",
	"valorant":                         "Valorant",
	"overwatch":                        "Overwatch 2",
	"wow":                              "World of Warcraft",
	"diablo iv":                        "Diablo IV",
	"hearthstone":                      "Hearthstone",
	"starcraft ii":                     "StarCraft II",
	"r5apex":                           "Apex Legends",
	"apex_legends":                     "Apex Legends",
	"bf2042":                           "Battlefield 2042",
	"rainbowsix":                       "Rainbow Six Siege",
	"rainbowsix_be":                    "Rainbow Six Siege",
	"acmirage":                         "Assassin's Creed Mirage",
	"farcry6":                          "Far Cry 6",
	"cyberpunk2077":                    "Cyberpunk 2077",
	"witcher3":                         "The Witcher 3",
	"gta5":                             "Grand Theft Auto V",
	"rdr2":                             "Red Dead Redemption 2",
	"minecraft":                        "Minecraft",
	"javaw":                            "Minecraft (Java)",
	"eldenring":                        "Elden Ring",
	"sekiro":                           "Sekiro: Shadows Die Twice",
	"bg3":                              "Baldur's Gate 3",
	"bg3_dx11":                         "Baldur's Gate 3",
	"baldursgate3":                     "Baldur's Gate 3",
	"starfield":                        "Starfield",
	"hogwartslegacy":                   "Hogwarts Legacy",
	"palworld-win64-shipping":          "Palworld",
	"helldivers2":                      "Helldivers 2",
	"3dmark":                           "3DMark",
	"superposition":                    "Unigine Superposition",
	"dwm":                              "Desktop Window Manager",
}

// sorted so partial matching is deterministic
var exeKeys = func() []string {
	keys := make([]string, 0, len(exeToGame))
	for k := range exeToGame {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

var (
	exeSuffix      = regexp.MustCompile(`(?i)\.exe$`)
	trailingDigits = regexp.MustCompile(`[_\-\s]*\d+$`)
	separators     = regexp.MustCompile(`[-_]+`)
	camelBoundary  = regexp.MustCompile(`([a-z])([A-Z])`)
)

// ResolveGameName maps a PresentMon Application value such as "dota2.exe" to a
// friendly name. Unknown executables are title-cased.
func ResolveGameName(exe string) string {
	clean := strings.TrimSpace(exe)
	if clean == "" {
		return "Unknown"
	}

	base := exeSuffix.ReplaceAllString(clean, "")
	key := strings.TrimSpace(strings.ToLower(base))

	if name, ok := exeToGame[key]; ok {
		return name
	}

	if stripped := trailingDigits.ReplaceAllString(key, ""); stripped != "" {
		if name, ok := exeToGame[stripped]; ok {
			return name
		}
	}

	for _, k := range exeKeys {
		if strings.Contains(key, k) || strings.Contains(k, key) {
			return exeToGame[k]
		}
	}

	fallback := separators.ReplaceAllString(base, " ")
	fallback = camelBoundary.ReplaceAllString(fallback, "$1 $2")
	if title := titleCase(fallback); title != "" {
		return title
	}
	return exe
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
