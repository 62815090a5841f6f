package corpus

// Defaults applied to attribute flags a source leaves unset.
const (
	DefaultInsertable  = true
	DefaultUpdatable   = true
	DefaultOptional    = true
	DefaultUnique      = false
	DefaultUserVisible = true
)

// Defaults is the set of values unset attribute flags resolve to.
// Every Provider supplies one; the builder never assumes its own.
type Defaults struct {
	Insertable  bool `yaml:"insertable" mapstructure:"insertable"`
	Updatable   bool `yaml:"updatable" mapstructure:"updatable"`
	Optional    bool `yaml:"optional" mapstructure:"optional"`
	Unique      bool `yaml:"unique" mapstructure:"unique"`
	UserVisible bool `yaml:"user_visible" mapstructure:"user_visible"`
}

// StandardDefaults returns the package default constants as a Defaults value.
func StandardDefaults() Defaults {
	return Defaults{
		Insertable:  DefaultInsertable,
		Updatable:   DefaultUpdatable,
		Optional:    DefaultOptional,
		Unique:      DefaultUnique,
		UserVisible: DefaultUserVisible,
	}
}

// Flag is a boolean annotation that may be absent.
type Flag uint8

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
)

// FlagOf converts b to a set Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// IsSet reports whether the flag carries a value.
func (f Flag) IsSet() bool {
	return f != FlagUnset
}

// Resolve returns the flag's value, or def when unset.
func (f Flag) Resolve(def bool) bool {
	switch f {
	case FlagTrue:
		return true
	case FlagFalse:
		return false
	default:
		return def
	}
}

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unset"
	}
}
