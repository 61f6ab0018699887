// Copyright 2026 The LexCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package permission

import "fmt"

// Module identifies a functional area whose access is controlled per member.
type Module string

const (
	ModuleCases     Module = "cases"
	ModuleClients   Module = "clients"
	ModuleDocuments Module = "documents"
	ModuleCalendar  Module = "calendar"
	ModuleBilling   Module = "billing"
	ModuleReports   Module = "reports"
	ModuleTeam      Module = "team"
	ModuleSettings  Module = "settings"
)

// allModules is the closed set of modules. Keep in sync with the constants
// above; Defaults covers every entry.
var allModules = []Module{
	ModuleCases,
	ModuleClients,
	ModuleDocuments,
	ModuleCalendar,
	ModuleBilling,
	ModuleReports,
	ModuleTeam,
	ModuleSettings,
}

// Modules returns the closed set of modules in a stable order.
func Modules() []Module {
	out := make([]Module, len(allModules))
	copy(out, allModules)
	return out
}

// Valid reports whether m is a defined module.
func (m Module) Valid() bool {
	for _, known := range allModules {
		if m == known {
			return true
		}
	}
	return false
}

// ParseModule parses a wire-format module name.
func ParseModule(s string) (Module, error) {
	m := Module(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown module: %q", s)
	}
	return m, nil
}

// SpecialFlag is a boolean capability outside the module/level model.
type SpecialFlag string

const (
	FlagManageTeam      SpecialFlag = "manage_team"
	FlagManageBilling   SpecialFlag = "manage_billing"
	FlagDeleteRecords   SpecialFlag = "delete_records"
	FlagExportData      SpecialFlag = "export_data"
	FlagApproveInvoices SpecialFlag = "approve_invoices"
)

var allFlags = []SpecialFlag{
	FlagManageTeam,
	FlagManageBilling,
	FlagDeleteRecords,
	FlagExportData,
	FlagApproveInvoices,
}

// SpecialFlags returns the closed set of special flags in a stable order.
func SpecialFlags() []SpecialFlag {
	out := make([]SpecialFlag, len(allFlags))
	copy(out, allFlags)
	return out
}

// Valid reports whether f is a defined flag.
func (f SpecialFlag) Valid() bool {
	for _, known := range allFlags {
		if f == known {
			return true
		}
	}
	return false
}
