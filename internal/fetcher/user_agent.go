package fetcher

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

type UserAgentType string

const (
	UserAgentAuto    UserAgentType = "auto"
	UserAgentChrome  UserAgentType = "chrome"
	UserAgentFirefox UserAgentType = "firefox"
	UserAgentSafari  UserAgentType = "safari"
	UserAgentEdge    UserAgentType = "edge"
)

// Desktop agents only: several boards serve a stripped mobile posting that
// lacks the company and location blocks.
var userAgents = map[UserAgentType][]string{
	UserAgentChrome: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	},
	UserAgentFirefox: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:129.0) Gecko/20100101 Firefox/129.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.5; rv:129.0) Gecko/20100101 Firefox/129.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	},
	UserAgentSafari: {
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	},
	UserAgentEdge: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36 Edg/128.0.0.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36 Edg/127.0.0.0",
	},
}

// UserAgentSelector picks a user agent per request. It is safe for concurrent
// use by batch detection.
type UserAgentSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
	all []string
}

func NewUserAgentSelector() *UserAgentSelector {
	s := &UserAgentSelector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for _, kind := range []UserAgentType{UserAgentChrome, UserAgentFirefox, UserAgentSafari, UserAgentEdge} {
		s.all = append(s.all, userAgents[kind]...)
	}
	return s
}

// Pick returns a random agent for a browser family. "auto" or empty picks from
// every family; any other value is treated as a literal user agent string.
func (s *UserAgentSelector) Pick(kind string) string {
	kind = strings.TrimSpace(kind)
	switch t := UserAgentType(strings.ToLower(kind)); t {
	case "", UserAgentAuto:
		return s.choose(s.all)
	case UserAgentChrome, UserAgentFirefox, UserAgentSafari, UserAgentEdge:
		return s.choose(userAgents[t])
	default:
		return kind
	}
}

func (s *UserAgentSelector) choose(agents []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return agents[s.rng.Intn(len(agents))]
}
