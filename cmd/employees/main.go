package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"bakehouse/internal/bootstrap"
	"bakehouse/internal/config"
)

func main() {
	var (
		envFile  string
		doImport bool
		doExport bool
		doList   bool
	)
	flag.StringVar(&envFile, "env", ".env", "dotenv file")
	flag.BoolVar(&doImport, "import", false, "create DB employees for employees.json entries that are missing")
	flag.BoolVar(&doExport, "export", false, "rewrite employees.json from the DB")
	flag.BoolVar(&doList, "list", false, "list employees and access codes")
	flag.Parse()

	if (doImport && doExport) || (!doImport && !doExport && !doList) {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Configuration load failed. %v", err)
	}
	cfg.SetupLogging()

	a, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("Repository Connection failed. %v", err)
	}
	code := run(a, doImport, doExport, doList)
	a.Close()
	os.Exit(code)
}

func run(a *bootstrap.App, doImport, doExport, doList bool) int {
	switch {
	case doImport:
		n, err := a.Employees.ImportRegistry()
		if err != nil {
			log.Errorf("import failed after %d employee(s): %v", n, err)
			return 1
		}
		fmt.Printf("imported %d employee(s) from %s\n", n, a.Config.EmployeesFile)
	case doExport:
		n, err := a.Employees.ExportRegistry()
		if err != nil {
			log.Errorf("export failed: %v", err)
			return 1
		}
		fmt.Printf("exported %d employee(s) to %s\n", n, a.Config.EmployeesFile)
	}

	if doList {
		list, err := a.Employees.ListEmployees()
		if err != nil {
			log.Errorf("list failed: %v", err)
			return 1
		}
		names, err := a.Registry.Names()
		if err != nil {
			log.Errorf("read %s failed: %v", a.Config.EmployeesFile, err)
			return 1
		}
		registered := make(map[string]bool)
		for _, name := range names {
			registered[name] = true
		}
		for _, e := range list {
			email := "-"
			if e.Email != nil {
				email = *e.Email
			}
			mark := " "
			if !registered[e.Name] {
				mark = "!"
			}
			fmt.Printf("%s %-30s %s  verified=%-5t %s\n", mark, e.Name, e.AccessCode, e.IsVerified, email)
		}
	}
	return 0
}
