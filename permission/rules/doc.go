/*
Package rules is a rule-based implementation of permission.Factory.

An Ability lists rules in the style of CASL: each grants an action on a model
(or "all"), optionally restricted to some fields and to entities matching
conditions. Inverted rules deny.

	ability := &rules.Ability{
	    Subject: permission.User{ID: "7"},
	    Rules: []rules.Rule{
	        {Action: permission.ActionRead, Subject: rules.SubjectAll},
	        {
	            Action:     permission.ActionUpdate,
	            Subject:    "api::article.article",
	            Fields:     []string{"title", "body"},
	            Conditions: []storagemodels.Condition{storagemodels.Eq("created_by", rules.UserIDPlaceholder)},
	        },
	    },
	}

Coarse checks ignore conditions. Instance checks need a matching grant and no
matching denial. Conditional grants become query scopes so that listings and
bulk operations only reach entities the caller may act on.
*/
package rules
