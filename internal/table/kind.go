package table

// Kind is the semantic type of a column, derived from its values.
type Kind int

const (
	Unknown Kind = iota
	Numeric
	Categorical
	Datetime
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Datetime:
		return "datetime"
	case Boolean:
		return "boolean"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// Classify declares the kind of a column from its non-missing values.
// A column with no usable values is Unknown. Numbers win over booleans so
// 0/1 columns stay numeric.
func Classify(c *Column) Kind {
	if c == nil {
		return Unknown
	}
	allNum, allBool, allTime := true, true, true
	seen := 0
	for _, v := range c.Values {
		if IsMissing(v) {
			continue
		}
		seen++
		if allNum {
			if _, ok := ParseNumber(v, c.Format); !ok {
				allNum = false
			}
		}
		if allBool {
			if _, ok := ParseBool(v); !ok {
				allBool = false
			}
		}
		if allTime {
			if _, ok := ParseTime(v); !ok {
				allTime = false
			}
		}
		if !allNum && !allBool && !allTime {
			break
		}
	}
	switch {
	case seen == 0:
		return Unknown
	case allNum:
		return Numeric
	case allBool:
		return Boolean
	case allTime:
		return Datetime
	default:
		return Categorical
	}
}

// Classifier memoizes kinds for one analyzer call over one table.
type Classifier struct {
	t     *Table
	kinds map[string]Kind
}

func NewClassifier(t *Table) *Classifier {
	return &Classifier{t: t, kinds: make(map[string]Kind, t.Width())}
}

// Kind classifies the named column; missing columns are Unknown.
func (c *Classifier) Kind(name string) Kind {
	if k, ok := c.kinds[name]; ok {
		return k
	}
	col, ok := c.t.Column(name)
	if !ok {
		return Unknown
	}
	k := Classify(col)
	c.kinds[name] = k
	return k
}
