package model

// Space declares and indexes the decision variables of a single model
type Space struct {
	variables []*Variable
	keys      map[Key]*Variable
	frozen    bool
}

func NewSpace() *Space {
	return &Space{
		variables: make([]*Variable, 0),
		keys:      make(map[Key]*Variable),
	}
}

func (s *Space) Declare(key Key, domain Domain) (*Variable, error) {
	if s.frozen {
		return nil, constructionError("declare", KindModelBuilt, key, ErrModelBuilt)
	} else if _, ok := s.keys[key]; ok {
		return nil, constructionError("declare", KindDuplicateKey, key, ErrDuplicateKey)
	} else if domain.Lower > domain.Upper {
		return nil, constructionError("declare", KindEmptyDomain, key, ErrEmptyDomain)
	}

	variable := &Variable{
		index:  len(s.variables),
		key:    key,
		domain: domain,
	}
	s.variables = append(s.variables, variable)
	s.keys[key] = variable
	return variable, nil
}

func (s *Space) Bool(key Key) (*Variable, error) {
	return s.Declare(key, BoolDomain())
}

func (s *Space) Int(key Key, lower, upper int64) (*Variable, error) {
	return s.Declare(key, IntDomain(lower, upper))
}

func (s *Space) Lookup(key Key) (*Variable, bool) {
	variable, ok := s.keys[key]
	return variable, ok
}

// Variables returns every declared variable in declaration order
func (s *Space) Variables() []*Variable {
	variables := make([]*Variable, len(s.variables))
	copy(variables, s.variables)
	return variables
}

func (s *Space) Len() int {
	return len(s.variables)
}

// Owns reports whether the variable was declared by this space
func (s *Space) Owns(variable *Variable) bool {
	return variable != nil &&
		variable.index < len(s.variables) &&
		s.variables[variable.index] == variable
}

func (s *Space) freeze() {
	s.frozen = true
}
