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

// DefaultsVersion identifies the current revision of the role default table.
// Changing any default below requires bumping this and shipping a deploy;
// defaults are deliberately not runtime data so the security posture stays
// auditable in source history.
const DefaultsVersion = "2026-08"

// roleDefaults is the compiled role default table. Every assignable role and
// RoleSolo has an entry; defaultsFor covers the full enum with an exhaustive
// switch so a new role without a table entry fails to build.
type roleDefaults struct {
	levels map[Module]Level
	flags  map[SpecialFlag]bool
}

func uniform(l Level) map[Module]Level {
	m := make(map[Module]Level, len(allModules))
	for _, mod := range allModules {
		m[mod] = l
	}
	return m
}

func allFlagsSet(v bool) map[SpecialFlag]bool {
	m := make(map[SpecialFlag]bool, len(allFlags))
	for _, f := range allFlags {
		m[f] = v
	}
	return m
}

// Defaults returns the default module levels and special flags for a role.
// An unknown role yields all-none and no flags: resolution fails closed,
// never open. The returned maps are fresh copies.
func Defaults(role Role) (map[Module]Level, map[SpecialFlag]bool) {
	d := defaultsFor(role)
	levels := make(map[Module]Level, len(allModules))
	for _, m := range allModules {
		levels[m] = d.levels[m]
	}
	flags := make(map[SpecialFlag]bool, len(allFlags))
	for _, f := range allFlags {
		flags[f] = d.flags[f]
	}
	return levels, flags
}

func defaultsFor(role Role) roleDefaults {
	switch role {
	case RoleOwner, RoleAdmin:
		return roleDefaults{levels: uniform(LevelFull), flags: allFlagsSet(true)}

	case RoleSolo:
		return roleDefaults{levels: uniform(LevelFull), flags: allFlagsSet(true)}

	case RolePartner:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelFull,
				ModuleClients:   LevelFull,
				ModuleDocuments: LevelFull,
				ModuleCalendar:  LevelFull,
				ModuleBilling:   LevelEdit,
				ModuleReports:   LevelFull,
				ModuleTeam:      LevelView,
				ModuleSettings:  LevelView,
			},
			flags: map[SpecialFlag]bool{
				FlagDeleteRecords:   true,
				FlagExportData:      true,
				FlagApproveInvoices: true,
			},
		}

	case RoleLawyer:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelEdit,
				ModuleClients:   LevelEdit,
				ModuleDocuments: LevelEdit,
				ModuleCalendar:  LevelEdit,
				ModuleBilling:   LevelView,
				ModuleReports:   LevelView,
				ModuleTeam:      LevelView,
				ModuleSettings:  LevelNone,
			},
			flags: map[SpecialFlag]bool{
				FlagExportData: true,
			},
		}

	case RoleParalegal:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelView,
				ModuleClients:   LevelView,
				ModuleDocuments: LevelView,
				ModuleCalendar:  LevelEdit,
				ModuleBilling:   LevelNone,
				ModuleReports:   LevelNone,
				ModuleTeam:      LevelView,
				ModuleSettings:  LevelNone,
			},
			flags: map[SpecialFlag]bool{},
		}

	case RoleSecretary:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelView,
				ModuleClients:   LevelEdit,
				ModuleDocuments: LevelView,
				ModuleCalendar:  LevelEdit,
				ModuleBilling:   LevelNone,
				ModuleReports:   LevelNone,
				ModuleTeam:      LevelView,
				ModuleSettings:  LevelNone,
			},
			flags: map[SpecialFlag]bool{},
		}

	case RoleAccountant:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelNone,
				ModuleClients:   LevelView,
				ModuleDocuments: LevelNone,
				ModuleCalendar:  LevelNone,
				ModuleBilling:   LevelFull,
				ModuleReports:   LevelView,
				ModuleTeam:      LevelNone,
				ModuleSettings:  LevelNone,
			},
			flags: map[SpecialFlag]bool{
				FlagManageBilling:   true,
				FlagApproveInvoices: true,
			},
		}

	case RoleDeparted:
		return roleDefaults{
			levels: map[Module]Level{
				ModuleCases:     LevelView,
				ModuleClients:   LevelView,
				ModuleDocuments: LevelView,
				ModuleCalendar:  LevelView,
				ModuleBilling:   LevelNone,
				ModuleReports:   LevelNone,
				ModuleTeam:      LevelNone,
				ModuleSettings:  LevelNone,
			},
			flags: map[SpecialFlag]bool{},
		}

	default:
		// Unknown role: deny everything.
		return roleDefaults{levels: uniform(LevelNone), flags: allFlagsSet(false)}
	}
}
