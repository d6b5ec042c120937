package profile

import "edgar_extract/pkg/models"

// Shared keyword groups for the financial-statement forms.
var (
	balanceSheetKeywords = []string{
		"consolidated_balance_sheets", "balance_sheets", "statement_of_financial_position",
		"consolidated_statement_of_financial_position",
	}
	incomeKeywords = []string{
		"consolidated_statements_of_operations", "statements_of_operations",
		"consolidated_statements_of_income", "statements_of_income",
		"consolidated_statements_of_earnings", "statements_of_earnings",
		"consolidated_statements_of_comprehensive_income", "statements_of_comprehensive_income",
	}
	cashFlowKeywords = []string{
		"consolidated_statements_of_cash_flows", "statements_of_cash_flows", "cash_flow_statements",
	}
	equityKeywords = []string{
		"consolidated_statements_of_changes_in_equity", "statements_of_changes_in_equity",
		"consolidated_statements_of_stockholders_equity", "statements_of_stockholders_equity",
		"consolidated_statements_of_shareholders_equity", "statements_of_shareholders_equity",
		"statements_of_partners_equity", "statements_of_members_equity",
	}
	ownershipKeywords = []string{"ownershipTable", "nonDerivativeTable", "derivativeTable", "signatureTable"}
	proxyKeywords     = []string{
		"summary_compensation_table", "director_compensation", "outstanding_equity_awards",
		"security_ownership", "performance_graph", "audit_fees", "compensation_committee_report",
	}
	prospectusKeywords = []string{
		"summary_table", "risk_factors", "use_of_proceeds", "capitalization",
		"dilution", "underwriting", "plan_of_distribution", "description_of_securities",
	}
	prospectusAnchors = []string{
		"PROSPECTUS SUMMARY", "RISK FACTORS", "USE OF PROCEEDS", "CAPITALIZATION", "DILUTION",
		"UNDERWRITING", "PLAN OF DISTRIBUTION", "DESCRIPTION OF CAPITAL STOCK", "LEGAL MATTERS", "EXPERTS",
	}
	proxyAnchors = []string{
		"PROPOSAL", "EXECUTIVE COMPENSATION", "DIRECTOR COMPENSATION", "SECURITY OWNERSHIP",
		"CORPORATE GOVERNANCE", "AUDIT COMMITTEE REPORT",
	}
)

func join(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Defaults returns the built-in filing type profiles. Amendments (10-K/A, 8-K/A, ...)
// are not listed: they resolve to their base form through prefix matching.
func Defaults() []models.FilingTypeProfile {
	return []models.FilingTypeProfile{
		{
			Name: "10-K", Label: "Annual report", ItemAnchors: true,
			TypeTags: []string{"10-K", "10-K405", "10-KSB", "10-KT"},
			TableKeywords: join(balanceSheetKeywords, incomeKeywords, cashFlowKeywords, equityKeywords, []string{
				"financial_statements", "financial_highlights", "selected_financial_data",
				"unaudited_quarterly_financial_data", "schedule_of_valuation_and_qualifying_accounts",
			}),
		},
		{
			Name: "10-Q", Label: "Quarterly report", ItemAnchors: true,
			TypeTags:      []string{"10-Q", "10-QSB", "10-QT"},
			TableKeywords: join(balanceSheetKeywords, incomeKeywords, cashFlowKeywords, equityKeywords, []string{"management_discussion_and_analysis"}),
		},
		{
			Name: "8-K", Label: "Current report", ItemAnchors: true,
			TypeTags: []string{"8-K"},
			TableKeywords: []string{
				"financial_statements", "pro_forma_financial_information", "exhibits",
				"press_release", "material_agreement_table",
			},
		},
		{
			Name: "20-F", Label: "Foreign annual report", ItemAnchors: true,
			TypeTags:      []string{"20-F"},
			TableKeywords: join(balanceSheetKeywords, incomeKeywords, cashFlowKeywords, []string{"exchange_rates", "selected_financial_data", "operating_and_financial_review"}),
		},
		{
			Name: "40-F", Label: "Canadian annual report",
			TypeTags:      []string{"40-F"},
			TableKeywords: join(balanceSheetKeywords, incomeKeywords, cashFlowKeywords),
		},
		{
			Name: "6-K", Label: "Foreign private issuer report",
			TypeTags:      []string{"6-K"},
			TableKeywords: []string{"financial_statements", "management_report", "financial_highlights", "financial_data", "press_release"},
		},
		{
			Name: "S-1", Label: "Registration statement",
			TypeTags: []string{"S-1"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{
				"summary_financial_data", "capitalization", "dilution", "financial_statements",
				"balance_sheets", "statements_of_operations", "statements_of_cash_flows", "use_of_proceeds", "underwriting",
			},
		},
		{
			Name: "S-3", Label: "Shelf registration", TypeTags: []string{"S-3"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "capitalization", "ratio_of_earnings", "use_of_proceeds", "plan_of_distribution"},
		},
		{
			Name: "S-4", Label: "Business combination registration", TypeTags: []string{"S-4"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "selected_financial_data", "unaudited_pro_forma", "comparative_per_share_data"},
		},
		{
			Name: "S-8", Label: "Employee benefit plan registration", TypeTags: []string{"S-8"},
			TableKeywords: []string{"employee_benefit_plan", "interests_of_named_experts", "plan_information"},
		},
		{
			Name: "S-11", Label: "Real estate registration", TypeTags: []string{"S-11"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "selected_financial_data", "distribution_policy", "dilution", "capitalization", "prior_performance"},
		},
		{
			Name: "F-1", Label: "Foreign registration", TypeTags: []string{"F-1"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "capitalization", "dilution", "financial_statements", "exchange_rates"},
		},
		{
			Name: "F-3", Label: "Foreign shelf registration", TypeTags: []string{"F-3"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "capitalization", "ratio_of_earnings", "exchange_rates", "use_of_proceeds"},
		},
		{
			Name: "F-4", Label: "Foreign business combination registration", TypeTags: []string{"F-4"}, SectionAnchors: prospectusAnchors,
			TableKeywords: []string{"summary_financial_data", "selected_financial_data", "unaudited_pro_forma", "comparative_per_share_data", "exchange_rates"},
		},
		{Name: "3", Label: "Initial statement of beneficial ownership", TypeTags: []string{"3"}, TableKeywords: ownershipKeywords},
		{Name: "4", Label: "Statement of changes in beneficial ownership", TypeTags: []string{"4"}, TableKeywords: ownershipKeywords},
		{Name: "5", Label: "Annual statement of beneficial ownership", TypeTags: []string{"5"}, TableKeywords: ownershipKeywords},
		{
			Name: "13F-HR", Label: "Institutional holdings report", TypeTags: []string{"13F-HR"},
			TableKeywords: []string{"informationTable", "coverPage", "summaryTable", "signatureBlock"},
		},
		{Name: "13F-NT", Label: "Institutional holdings notice", TypeTags: []string{"13F-NT"}, TableKeywords: []string{"coverPage", "signatureBlock"}},
		{Name: "SC 13D", Label: "Beneficial ownership report", TypeTags: []string{"SC 13D"}, TableKeywords: []string{"transactionTable", "ownershipTable", "signatureTable"}},
		{Name: "SC 13G", Label: "Passive beneficial ownership report", TypeTags: []string{"SC 13G"}, TableKeywords: []string{"ownershipTable", "signatureTable"}},
		{
			Name: "DEF 14A", Label: "Definitive proxy statement", TypeTags: []string{"DEF 14A"}, SectionAnchors: proxyAnchors,
			TableKeywords: join(proxyKeywords, []string{"proposal_table", "beneficial_ownership", "executive_compensation", "option_exercises"}),
		},
		{Name: "PRE 14A", Label: "Preliminary proxy statement", TypeTags: []string{"PRE 14A"}, SectionAnchors: proxyAnchors, TableKeywords: proxyKeywords},
		{Name: "DEFA14A", Label: "Additional proxy materials", TypeTags: []string{"DEFA14A"}, TableKeywords: []string{"additional_soliciting_material", "voting_instructions"}},
		{
			Name: "DEFM14A", Label: "Merger proxy statement", TypeTags: []string{"DEFM14A"}, SectionAnchors: proxyAnchors,
			TableKeywords: []string{"summary_term_sheet", "the_merger", "merger_agreement_summary", "comparison_of_stockholder_rights", "voting_securities"},
		},
		{Name: "DEFR14A", Label: "Revised definitive proxy statement", TypeTags: []string{"DEFR14A"}, TableKeywords: join(proxyKeywords[:3], []string{"revision_explanation"})},
		{Name: "PX14A6G", Label: "Notice of exempt solicitation", TypeTags: []string{"PX14A6G"}, TableKeywords: []string{"solicitation_notice", "proposal_table", "supporting_statement"}},
		{
			Name: "SC TO", Label: "Tender offer statement", TypeTags: []string{"SC TO-I", "SC TO-T"},
			TableKeywords: []string{"summary_term_sheet", "tender_offer_terms", "source_and_amount_of_funds"},
		},
		{
			Name: "11-K", Label: "Employee plan annual report", TypeTags: []string{"11-K"},
			TableKeywords: []string{"financial_statements", "schedule_of_assets", "schedule_of_reportable_transactions", "net_assets_available_for_benefits", "changes_in_net_assets"},
		},
		{Name: "NT 10-K", Label: "Late annual report notice", TypeTags: []string{"NT 10-K"}, TableKeywords: []string{"notification_table", "explanation_narrative"}},
		{Name: "NT 10-Q", Label: "Late quarterly report notice", TypeTags: []string{"NT 10-Q"}, TableKeywords: []string{"notification_table", "explanation_narrative"}},
		{
			Name: "424B", Label: "Prospectus", SectionAnchors: prospectusAnchors,
			TypeTags:      []string{"424B1", "424B2", "424B3", "424B4", "424B5"},
			TableKeywords: prospectusKeywords,
		},
		{
			Name: "N-CSR", Label: "Investment company shareholder report", TypeTags: []string{"N-CSR"},
			TableKeywords: []string{"schedule_of_investments", "statement_of_assets", "statement_of_operations", "financial_highlights"},
		},
		{Name: "N-PORT", Label: "Monthly portfolio investments report", TypeTags: []string{"N-PORT"}, TableKeywords: []string{"general_information", "portfolio_investments", "explanatory_notes"}},
		{Name: "N-PX", Label: "Annual proxy voting record", TypeTags: []string{"N-PX"}, TableKeywords: []string{"proxy_voting_record", "voting_summary"}},
	}
}
