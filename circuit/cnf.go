package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A CNF is a conjunction of clauses over NbVars variables, as read from a DIMACS file.
type CNF struct {
	NbVars  int
	Clauses [][]int
}

// ParseCNF parses a DIMACS CNF stream.
func ParseCNF(r io.Reader) (*CNF, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var (
		cnf       CNF
		header    bool
		nbClauses int
		pending   []int // Clauses can span several lines
	)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c", "%":
			continue
		case "p":
			var err error
			if cnf.NbVars, nbClauses, err = parseHeader(fields); err != nil {
				return nil, errors.Wrapf(err, "could not parse header %q", line)
			}
			cnf.Clauses = make([][]int, 0, nbClauses)
			header = true
		default:
			if !header {
				return nil, errors.Errorf("clause %q found before header", line)
			}
			for _, field := range fields {
				lit, err := strconv.Atoi(field)
				if err != nil {
					return nil, errors.Wrapf(err, "could not parse clause %q", line)
				}
				if lit == 0 {
					cnf.Clauses = append(cnf.Clauses, pending)
					pending = nil
					continue
				}
				if lit > cnf.NbVars || -lit > cnf.NbVars {
					return nil, errors.Errorf("invalid literal %d for problem with %d vars only", lit, cnf.NbVars)
				}
				pending = append(pending, lit)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read CNF")
	}
	if !header {
		return nil, errors.New("missing CNF header")
	}
	if len(pending) != 0 {
		return nil, errors.New("unfinished clause while EOF found")
	}
	return &cnf, nil
}

func parseHeader(fields []string) (nbVars, nbClauses int, err error) {
	if len(fields) != 4 || fields[1] != "cnf" {
		return 0, 0, errors.Errorf("expected \"p cnf <vars> <clauses>\", got %d fields", len(fields))
	}
	if nbVars, err = strconv.Atoi(fields[2]); err != nil {
		return 0, 0, errors.Errorf("nbvars not an int: %q", fields[2])
	}
	if nbVars < 0 {
		return 0, 0, errors.Errorf("negative number of vars %d", nbVars)
	}
	if nbClauses, err = strconv.Atoi(fields[3]); err != nil {
		return 0, 0, errors.Errorf("nbClauses not an int: %q", fields[3])
	}
	if nbClauses < 0 {
		return 0, 0, errors.Errorf("negative number of clauses %d", nbClauses)
	}
	return nbVars, nbClauses, nil
}

// String returns the DIMACS representation of cnf.
func (cnf *CNF) String() string {
	lines := make([]string, 1, len(cnf.Clauses)+1)
	lines[0] = fmt.Sprintf("p cnf %d %d", cnf.NbVars, len(cnf.Clauses))
	for _, clause := range cnf.Clauses {
		strClause := make([]string, len(clause)+1)
		for i, lit := range clause {
			strClause[i] = strconv.Itoa(lit)
		}
		strClause[len(clause)] = "0"
		lines = append(lines, strings.Join(strClause, " "))
	}
	return strings.Join(lines, "\n")
}
