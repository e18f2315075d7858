package genius

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Feed is the raw live-stats game record as served by data.json.
type Feed struct {
	Teams map[string]*FeedTeam `json:"tm"`
	PBP   []FeedAction         `json:"pbp"`
}

// FeedTeam is one entry of the "tm" object, keyed "1" and "2".
type FeedTeam struct {
	Name      string                 `json:"name"`
	ShortName string                 `json:"shortName"`
	Code      string                 `json:"code"`
	Score     FlexInt                `json:"score"`
	FullScore FlexInt                `json:"full_score"`
	Players   map[string]*FeedPlayer `json:"pl"`
}

// FeedPlayer is one roster entry of a team, keyed by player number.
type FeedPlayer struct {
	FirstName               string     `json:"firstName"`
	FamilyName              string     `json:"familyName"`
	InternationalFirstName  string     `json:"internationalFirstName"`
	InternationalFamilyName string     `json:"internationalFamilyName"`
	ShirtNumber             FlexString `json:"shirtNumber"`
	PlayingPosition         string     `json:"playingPosition"`
	Starter                 FlexInt    `json:"starter"`
	Captain                 FlexInt    `json:"captain"`

	Minutes                string  `json:"sMinutes"`
	Points                 FlexInt `json:"sPoints"`
	FieldGoalsMade         FlexInt `json:"sFieldGoalsMade"`
	FieldGoalsAttempted    FlexInt `json:"sFieldGoalsAttempted"`
	ThreePointersMade      FlexInt `json:"sThreePointersMade"`
	ThreePointersAttempted FlexInt `json:"sThreePointersAttempted"`
	TwoPointersMade        FlexInt `json:"sTwoPointersMade"`
	TwoPointersAttempted   FlexInt `json:"sTwoPointersAttempted"`
	FreeThrowsMade         FlexInt `json:"sFreeThrowsMade"`
	FreeThrowsAttempted    FlexInt `json:"sFreeThrowsAttempted"`
	ReboundsDefensive      FlexInt `json:"sReboundsDefensive"`
	ReboundsOffensive      FlexInt `json:"sReboundsOffensive"`
	ReboundsTotal          FlexInt `json:"sReboundsTotal"`
	Assists                FlexInt `json:"sAssists"`
	Turnovers              FlexInt `json:"sTurnovers"`
	Steals                 FlexInt `json:"sSteals"`
	Blocks                 FlexInt `json:"sBlocks"`
	BlocksReceived         FlexInt `json:"sBlocksReceived"`
	FoulsPersonal          FlexInt `json:"sFoulsPersonal"`
	FoulsOn                FlexInt `json:"sFoulsOn"`
	PlusMinusPoints        FlexInt `json:"sPlusMinusPoints"`
}

// FeedAction is one play-by-play record. The feed lists them newest first.
type FeedAction struct {
	Clock          string      `json:"clock"`
	S1             FlexInt     `json:"s1"`
	S2             FlexInt     `json:"s2"`
	Lead           FlexInt     `json:"lead"`
	Team           FlexInt     `json:"tno"`
	Period         FlexInt     `json:"period"`
	PeriodType     string      `json:"periodType"`
	PlayerNumber   FlexInt     `json:"pno"`
	Player         string      `json:"player"`
	Success        FlexInt     `json:"success"`
	ActionType     string      `json:"actionType"`
	ActionNumber   FlexInt     `json:"actionNumber"`
	PreviousAction FlexInt     `json:"previousAction"`
	Qualifier      FlexStrings `json:"qualifier"`
	SubType        string      `json:"subType"`
	Scoring        FlexInt     `json:"scoring"`

	FirstName               string `json:"firstName"`
	FamilyName              string `json:"familyName"`
	InternationalFirstName  string `json:"internationalFirstName"`
	InternationalFamilyName string `json:"internationalFamilyName"`
}

// FlexInt decodes numbers the feed sends as JSON numbers, numeric strings,
// booleans, empty strings or null. Anything unparseable decodes as 0.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flexible int: %w", err)
	}
	*f = FlexInt(parseInt(v))
	return nil
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			if fl, ferr := strconv.ParseFloat(strings.TrimSpace(val), 64); ferr == nil {
				return int(fl)
			}
			return 0
		}
		return i
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// FlexString decodes a string that is sometimes sent as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flexible string: %w", err)
	}
	switch val := v.(type) {
	case string:
		*f = FlexString(val)
	case float64:
		*f = FlexString(strconv.FormatFloat(val, 'f', -1, 64))
	case nil:
		*f = ""
	default:
		*f = FlexString(fmt.Sprint(val))
	}
	return nil
}

// FlexStrings decodes a list of strings, a single string, or null.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flexible strings: %w", err)
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			*f = nil
		} else {
			*f = FlexStrings{val}
		}
	case []interface{}:
		out := make(FlexStrings, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		*f = out
	default:
		*f = nil
	}
	return nil
}
