package scraper

import (
	"strings"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

// BaseSites are general bursary listing sites
var BaseSites = []string{
	"https://www.zabursaries.co.za/",
	"https://allbursaries.co.za/",
	"https://www.graduates24.com/bursaries/",
	"https://studytrust.org.za/bursaries/",
	"https://www.studentroom.co.za/category/bursaries/",
	"https://onlinebursaries.co.za/",
	"https://bursariesafrica.co.za/",
	"https://bursariesguru.co.za/",
	"https://www.bursariesportal.co.za/",
	"https://sagovjobs.co.za/category/bursaries/",
	"https://bursaries.co.za/",
	"https://www.gostudy.net/bursaries",
}

// UniversitySites are university financial aid pages
var UniversitySites = []string{
	"https://www.unisa.ac.za/sites/Student-Affairs-&-SRC",
	"https://www.boston.ac.za/bursaries",
	"https://www.wits.ac.za/study-at-wits/scholarships-and-bursaries",
	"https://www.uj.ac.za/student-finance/bursaries",
	"https://www.up.ac.za/article/bursaries-and-loans",
	"https://finaid.mandela.ac.za/Bursaries",
	"https://finaid.sun.ac.za",
	"https://www.cut.ac.za/fees-bursaries-and-loans",
	"http://studies.nwu.ac.za/studies/bursaries",
	"https://www.smu.ac.za/Financial-Aid/Students",
	"https://www.univen.ac.za/students/scholarships",
	"https://www.ufs.ac.za/kovsielife/unlisted-pages/finaid",
	"https://www.dut.ac.za/student_services/bursaries",
}

// CompanySites are corporate bursary programmes
var CompanySites = []string{
	"https://www.standardbank.com/careers/early-careers",
	"https://www.idc.co.za/bursaries",
	"https://www.nedbank.co.za/careers/youth-talent/the-2025-nedbank-external-bursary-programme",
	"https://fasset.org.za/Bursaries",
	"https://www.investec.com/tertiary-bursary-programme",
	"https://ttibursaries.co.za/students",
}

// GovernmentSites are government and SETA bursary pages
var GovernmentSites = []string{
	"https://applyonline.isfap.org.za",
	"http://www.dffe.gov.za/bursaries",
	"https://www.tourism.gov.za/Careers/pages/bursaries",
	"https://www.dsac.gov.za/DSAC-Bursaries-for-2025-Heritage-Related-Studies",
	"https://www.mict.org.za/bursaries",
	"https://www.sasseta.org.za/Learners",
}

// IndustrySites are visited first when a profile names the industry
var IndustrySites = map[string][]string{
	"Health & Medical Sciences": {
		"https://www.nrf.ac.za/nrf-for-post-graduate-students",
		"https://www.sansa.org.za/bursaries",
		"https://nstf.org.za/available-bursaries-undergraduates",
	},
}

// Sites returns the ordered, de-duplicated list of listing pages to visit
// for a profile with the given industries.
func Sites(industries []string, cfg config.ScraperConfig) []string {
	var sites []string

	for _, industry := range industries {
		sites = append(sites, IndustrySites[industry]...)
	}
	sites = append(sites, cfg.ExtraSites...)

	if !cfg.SkipBase {
		sites = append(sites, BaseSites...)
	}
	if !cfg.SkipUniversity {
		sites = append(sites, UniversitySites...)
	}
	if !cfg.SkipCompany {
		sites = append(sites, CompanySites...)
	}
	if !cfg.SkipGovernment {
		sites = append(sites, GovernmentSites...)
	}

	seen := make(map[string]bool, len(sites))
	unique := make([]string, 0, len(sites))
	for _, s := range sites {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}

	return unique
}
